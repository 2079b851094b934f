package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"deal_agent/internal/app"
	"deal_agent/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	B *app.BundleService
	C *app.ChatService
	W *app.WatchService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/deals", h.listDeals)
	s.mux.Get("/v1/deals/{uid}", h.getDeal)
	s.mux.Post("/v1/bundles", h.bundles)
	s.mux.Get("/v1/watches", h.listWatches)
	s.mux.Post("/v1/watches", h.createWatch)
	s.mux.Post("/chat", h.chat)
	s.mux.Get("/ws/chat", h.chatWS)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) listDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.Q.ListDeals(r.Context())
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store Unavailable", "deal listing failed")
		return
	}
	resp := struct {
		Deals []domain.Deal `json:"deals"`
	}{Deals: deals}

	etag, body := calcETagAndBody(resp)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listDeals body")
	}
}

func (h *Handlers) getDeal(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	d, err := h.Q.GetDeal(r.Context(), uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "deal not found")
			return
		}
		writeProblem(w, http.StatusServiceUnavailable, "Store Unavailable", "deal lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) bundles(w http.ResponseWriter, r *http.Request) {
	var req domain.BundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "bundle request must be valid JSON")
		return
	}
	bundles, note := h.B.SelectBundle(r.Context(), req)
	resp := struct {
		Bundles []domain.Bundle `json:"bundles"`
		Note    string          `json:"note,omitempty"`
	}{Bundles: bundles, Note: note}
	if resp.Bundles == nil {
		resp.Bundles = []domain.Bundle{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) createWatch(w http.ResponseWriter, r *http.Request) {
	var in domain.Watch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "watch must be valid JSON")
		return
	}
	out, err := h.W.CreateWatch(r.Context(), in)
	if err != nil {
		if in.TargetUID == "" {
			writeProblem(w, http.StatusBadRequest, "Invalid Watch", err.Error())
			return
		}
		writeProblem(w, http.StatusServiceUnavailable, "Store Unavailable", "watch could not be saved")
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) listWatches(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	watches, err := h.W.ListWatches(r.Context(), status)
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store Unavailable", "watch listing failed")
		return
	}
	if watches == nil {
		watches = []domain.Watch{}
	}
	writeJSON(w, http.StatusOK, struct {
		Watches []domain.Watch `json:"watches"`
	}{Watches: watches})
}

func (h *Handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req app.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "chat request must be valid JSON")
		return
	}
	writeJSON(w, http.StatusOK, h.C.Reply(r.Context(), req))
}
