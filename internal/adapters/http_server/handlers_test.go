package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	server "deal_agent/internal/adapters/http_server"
	"deal_agent/internal/app"
	"deal_agent/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	deals   []domain.Deal
	watches []domain.Watch
	listErr error
}

func (f *fakeRepo) UpsertDeals(ctx context.Context, deals []domain.Deal) (domain.BatchResult, error) {
	return domain.BatchResult{Succeeded: len(deals)}, nil
}

func (f *fakeRepo) ListDeals(ctx context.Context) ([]domain.Deal, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.deals, nil
}

func (f *fakeRepo) GetDeal(ctx context.Context, uid string) (domain.Deal, error) {
	for _, d := range f.deals {
		if d.DealUID == uid {
			return d, nil
		}
	}
	return domain.Deal{}, domain.ErrNotFound
}

func (f *fakeRepo) UpsertWatch(ctx context.Context, w domain.Watch) error {
	f.watches = append(f.watches, w)
	return nil
}

func (f *fakeRepo) ListWatches(ctx context.Context, status string) ([]domain.Watch, error) {
	return f.watches, nil
}

func pstr(s string) *string { return &s }

func newTestServer(repo *fakeRepo) *httptest.Server {
	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Q: app.NewQueryService(repo, nil, time.Minute),
		B: app.NewBundleService(repo),
		C: app.NewChatService(repo, nil, nil, nil),
		W: app.NewWatchService(repo),
	})
	return httptest.NewServer(srv.Mux())
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

// ---- tests ----

func TestHealthz(t *testing.T) {
	ts := newTestServer(&fakeRepo{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestBundlesEndpoint(t *testing.T) {
	repo := &fakeRepo{deals: []domain.Deal{
		{DealUID: "f1", Kind: "flight", Price: 200, Currency: "USD", Origin: pstr("SFO"), Destination: pstr("LIS")},
		{DealUID: "h1", Kind: "hotel", Price: 150, Currency: "USD", HotelLocation: pstr("Lisbon")},
	}}
	ts := newTestServer(repo)
	defer ts.Close()

	var out struct {
		Bundles []domain.Bundle `json:"bundles"`
		Note    string          `json:"note"`
	}
	status := postJSON(t, ts.URL+"/v1/bundles", domain.BundleRequest{Currency: "USD"}, &out)
	if status != http.StatusOK {
		t.Fatalf("status: %d", status)
	}
	if len(out.Bundles) != 1 || out.Bundles[0].TotalPrice != 350 {
		t.Fatalf("bundles: %+v", out.Bundles)
	}
	if out.Note != "" {
		t.Fatalf("note: %q", out.Note)
	}
}

func TestBundlesEndpoint_DegradedStore(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("store down")}
	ts := newTestServer(repo)
	defer ts.Close()

	var out struct {
		Bundles []domain.Bundle `json:"bundles"`
		Note    string          `json:"note"`
	}
	status := postJSON(t, ts.URL+"/v1/bundles", domain.BundleRequest{Currency: "USD"}, &out)
	if status != http.StatusOK {
		t.Fatalf("degraded path must still answer 200, got %d", status)
	}
	if len(out.Bundles) != 0 || out.Note == "" {
		t.Fatalf("expected empty bundles with a note: %+v", out)
	}
}

func TestChatEndpoint_Echo(t *testing.T) {
	ts := newTestServer(&fakeRepo{})
	defer ts.Close()

	var out app.ChatReply
	status := postJSON(t, ts.URL+"/chat", app.ChatRequest{Message: "Hello agent"}, &out)
	if status != http.StatusOK {
		t.Fatalf("status: %d", status)
	}
	if !strings.Contains(out.Reply, "Hello agent") {
		t.Fatalf("reply: %q", out.Reply)
	}
}

func TestDealsEndpoint_ETag(t *testing.T) {
	repo := &fakeRepo{deals: []domain.Deal{{DealUID: "h1", Kind: "hotel", Price: 150, Currency: "USD"}}}
	ts := newTestServer(repo)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/deals")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	etag := resp.Header.Get("ETag")
	resp.Body.Close()
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/deals", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", resp2.StatusCode)
	}
}

func TestWatchEndpoints(t *testing.T) {
	ts := newTestServer(&fakeRepo{})
	defer ts.Close()

	var created domain.Watch
	status := postJSON(t, ts.URL+"/v1/watches", map[string]any{"target_uid": "h1", "threshold_price": 100}, &created)
	if status != http.StatusCreated {
		t.Fatalf("status: %d", status)
	}
	if created.WatchUID == "" || created.Status != domain.WatchStatusActive {
		t.Fatalf("created: %+v", created)
	}

	if status := postJSON(t, ts.URL+"/v1/watches", map[string]any{}, nil); status != http.StatusBadRequest {
		t.Fatalf("missing target_uid must 400, got %d", status)
	}

	resp, err := http.Get(ts.URL + "/v1/watches")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var listed struct {
		Watches []domain.Watch `json:"watches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed.Watches) != 1 {
		t.Fatalf("watches: %+v", listed.Watches)
	}
}

func TestChatWebSocket(t *testing.T) {
	ts := newTestServer(&fakeRepo{})
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	if err := conn.WriteJSON(app.ChatRequest{Message: "Hello agent"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply app.ChatReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(reply.Reply, "Hello agent") {
		t.Fatalf("reply: %q", reply.Reply)
	}
}
