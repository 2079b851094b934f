package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"deal_agent/internal/domain"
)

const chatDealLimit = 3

type ChatRequest struct {
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

type ChatReply struct {
	Reply string   `json:"reply"`
	Tools []string `json:"tools,omitempty"`
}

// ChatService answers conversational requests. Tool lookups are keyword
// triggered and best-effort; the model call falls back to a deterministic
// reply, so the request/response cycle never fails on a dependency outage.
type ChatService struct {
	repo    domain.DealRepository
	model   domain.ModelClient
	search  domain.SearchClient
	weather domain.WeatherClient
}

func NewChatService(repo domain.DealRepository, model domain.ModelClient, search domain.SearchClient, weather domain.WeatherClient) *ChatService {
	return &ChatService{repo: repo, model: model, search: search, weather: weather}
}

func (s *ChatService) Reply(ctx context.Context, req ChatRequest) ChatReply {
	msg := strings.TrimSpace(req.Message)
	lower := strings.ToLower(msg)

	var sections, tools []string

	if s.weather != nil && req.Location != "" && strings.Contains(lower, "weather") {
		if w, err := s.weather.CurrentWeather(ctx, req.Location); err != nil {
			log.Warn().Err(err).Msg("weather lookup failed")
		} else if w != "" {
			sections = append(sections, w)
			tools = append(tools, "weather")
		}
	}

	if s.search != nil && containsAny(lower, "search", "find", "recommend") {
		if snips, err := s.search.Search(ctx, msg); err != nil {
			log.Warn().Err(err).Msg("web search failed")
		} else if snips != "" {
			sections = append(sections, "Search results:\n"+snips)
			tools = append(tools, "search")
		}
	}

	if s.repo != nil && containsAny(lower, "deal", "flight", "hotel", "bundle", "trip") {
		if deals, err := s.repo.ListDeals(ctx); err != nil {
			log.Warn().Err(err).Msg("deal lookup failed")
		} else if len(deals) > 0 {
			sections = append(sections, "Current deals:\n"+formatDeals(deals, chatDealLimit))
			tools = append(tools, "deals")
		}
	}

	toolContext := strings.Join(sections, "\n\n")

	if s.model != nil {
		out, err := s.model.GenerateReply(ctx, buildPrompt(msg, toolContext))
		if err != nil {
			log.Warn().Err(err).Msg("model reply failed; using fallback")
		} else if strings.TrimSpace(out) != "" {
			return ChatReply{Reply: out, Tools: tools}
		}
	}

	// deterministic fallback: echo the request plus whatever tools produced
	var b strings.Builder
	b.WriteString("You said: ")
	b.WriteString(msg)
	if toolContext != "" {
		b.WriteString("\n\n")
		b.WriteString(toolContext)
	}
	return ChatReply{Reply: b.String(), Tools: tools}
}

func buildPrompt(message, toolContext string) string {
	if toolContext == "" {
		return fmt.Sprintf("You are a travel assistant. Answer the user briefly.\n\nUser: %s", message)
	}
	return fmt.Sprintf("You are a travel assistant. Use the context below when relevant.\n\nContext:\n%s\n\nUser: %s",
		toolContext, message)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func formatDeals(deals []domain.Deal, limit int) string {
	if len(deals) > limit {
		deals = deals[:limit]
	}
	lines := make([]string, 0, len(deals))
	for _, d := range deals {
		lines = append(lines, fmt.Sprintf("- %s (%s) %.2f %s", labelFor(d), d.Kind, d.Price, d.Currency))
	}
	return strings.Join(lines, "\n")
}
