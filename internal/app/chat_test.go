package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"deal_agent/internal/app"
	"deal_agent/internal/domain"
)

type fakeModel struct {
	reply string
	err   error
}

func (m *fakeModel) GenerateReply(ctx context.Context, prompt string) (string, error) {
	return m.reply, m.err
}

type fakeSearch struct{ out string }

func (s *fakeSearch) Search(ctx context.Context, query string) (string, error) {
	return s.out, nil
}

type fakeWeather struct{ out string }

func (w *fakeWeather) CurrentWeather(ctx context.Context, location string) (string, error) {
	return w.out, nil
}

func TestChat_FallbackEchoesMessage(t *testing.T) {
	c := app.NewChatService(nil, nil, nil, nil)
	got := c.Reply(context.Background(), app.ChatRequest{Message: "Hello agent"})
	if !strings.Contains(got.Reply, "Hello agent") {
		t.Fatalf("fallback must echo the message: %q", got.Reply)
	}
}

func TestChat_ModelReplyWins(t *testing.T) {
	c := app.NewChatService(nil, &fakeModel{reply: "Lisbon is lovely in May."}, nil, nil)
	got := c.Reply(context.Background(), app.ChatRequest{Message: "when to visit Lisbon?"})
	if got.Reply != "Lisbon is lovely in May." {
		t.Fatalf("reply: %q", got.Reply)
	}
}

func TestChat_ModelFailureFallsBack(t *testing.T) {
	c := app.NewChatService(nil, &fakeModel{err: errors.New("quota exceeded")}, nil, nil)
	got := c.Reply(context.Background(), app.ChatRequest{Message: "Hello agent"})
	if !strings.Contains(got.Reply, "Hello agent") {
		t.Fatalf("fallback must echo the message: %q", got.Reply)
	}
}

func TestChat_DealKeywordPullsStoredDeals(t *testing.T) {
	repo := newFakeRepo()
	_, _ = repo.UpsertDeals(context.Background(), []domain.Deal{
		hotel("h1", "Lisbon", 150),
	})
	c := app.NewChatService(repo, nil, nil, nil)

	got := c.Reply(context.Background(), app.ChatRequest{Message: "any hotel deals?"})
	if !strings.Contains(got.Reply, "Current deals:") {
		t.Fatalf("expected deal context in fallback: %q", got.Reply)
	}
	if len(got.Tools) != 1 || got.Tools[0] != "deals" {
		t.Fatalf("tools: %v", got.Tools)
	}
}

func TestChat_WeatherNeedsLocation(t *testing.T) {
	wx := &fakeWeather{out: "Weather in Lisbon: clear sky, temp 21.0°C, feels 21.0°C"}
	c := app.NewChatService(nil, nil, nil, wx)

	// no location: the tool is skipped rather than guessed at
	got := c.Reply(context.Background(), app.ChatRequest{Message: "how is the weather?"})
	if strings.Contains(got.Reply, "Weather in Lisbon") {
		t.Fatalf("weather must not run without a location: %q", got.Reply)
	}

	got = c.Reply(context.Background(), app.ChatRequest{Message: "how is the weather?", Location: "Lisbon"})
	if !strings.Contains(got.Reply, "Weather in Lisbon") {
		t.Fatalf("expected weather context: %q", got.Reply)
	}
	if len(got.Tools) != 1 || got.Tools[0] != "weather" {
		t.Fatalf("tools: %v", got.Tools)
	}
}

func TestChat_SearchKeyword(t *testing.T) {
	c := app.NewChatService(nil, nil, &fakeSearch{out: "- Lisbon guide: top sights"}, nil)
	got := c.Reply(context.Background(), app.ChatRequest{Message: "find things to do in Lisbon"})
	if !strings.Contains(got.Reply, "Lisbon guide") {
		t.Fatalf("expected search context: %q", got.Reply)
	}
}
