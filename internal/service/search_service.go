package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-workbench/internal/config"
	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/repository"
	"github.com/spec-kit/support-workbench/internal/search"
	apperrors "github.com/spec-kit/support-workbench/pkg/util"
)

// SearchService fronts the federated knowledge-base search: it issues
// sequenced upstream requests, merges contextual and general passes, applies
// results to the owning tab (discarding stale responses), and keeps the
// per-agent query history.
type SearchService struct {
	client   *search.Client
	sessions *SessionService
	store    repository.ResearchStore
	logger   *zap.Logger

	cfg config.SearchConfig

	mu         sync.Mutex
	suggesters map[string]*suggestionBox
}

// SearchOutcome bundles one search round-trip for the API layer.
type SearchOutcome struct {
	Results      []domain.SearchResult
	TotalCount   int
	SearchTimeMS int
	Confidence   int
	Applied      bool
}

// NewSearchService constructs the service.
func NewSearchService(client *search.Client, sessions *SessionService, store repository.ResearchStore, cfg config.SearchConfig, logger *zap.Logger) *SearchService {
	return &SearchService{
		client:     client,
		sessions:   sessions,
		store:      store,
		logger:     logger,
		cfg:        cfg,
		suggesters: make(map[string]*suggestionBox),
	}
}

// Search runs a general search for a tab. The response carries a sequence
// number; if a newer response already landed on the tab this one is
// discarded and Applied is false.
func (s *SearchService) Search(ctx context.Context, agentID, tabID, query string, filters domain.SearchFilters) (*SearchOutcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query required", nil)
	}
	manager := s.sessions.ManagerFor(agentID)
	if err := manager.UpdateQuery(tabID, query, filters); err != nil {
		return nil, apperrors.NewNotFound("research tab", map[string]any{"tab_id": tabID})
	}

	resp, err := s.client.Search(ctx, search.SearchRequest{Query: query, Filters: filters, SessionID: tabID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	applied, err := manager.ApplyResults(tabID, resp.Seq, resp.Results)
	if err != nil {
		return nil, apperrors.NewNotFound("research tab", map[string]any{"tab_id": tabID})
	}
	s.pushHistory(ctx, agentID, query, len(resp.Results))
	s.trackAsync("search", map[string]any{
		"query":        query,
		"result_count": len(resp.Results),
		"session_id":   tabID,
	})

	return &SearchOutcome{
		Results:      resp.Results,
		TotalCount:   resp.TotalCount,
		SearchTimeMS: resp.SearchTimeMS,
		Confidence:   search.Confidence(resp.Results),
		Applied:      applied,
	}, nil
}

// ContextualSearch runs the general and contextual passes, merges them with
// contextual results winning ties, and asks the upstream re-ranker for a
// final ordering. When re-ranking fails the local merge order stands.
func (s *SearchService) ContextualSearch(ctx context.Context, agentID, tabID, query string, filters domain.SearchFilters, ticketCtx domain.TicketContext) (*SearchOutcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query required", nil)
	}
	manager := s.sessions.ManagerFor(agentID)
	if err := manager.UpdateQuery(tabID, query, filters); err != nil {
		return nil, apperrors.NewNotFound("research tab", map[string]any{"tab_id": tabID})
	}
	if err := manager.SetTicketContext(tabID, &ticketCtx); err != nil {
		return nil, apperrors.NewNotFound("research tab", map[string]any{"tab_id": tabID})
	}

	general, err := s.client.Search(ctx, search.SearchRequest{
		Query:     query,
		Filters:   filters,
		SessionID: tabID,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	contextual, err := s.client.ContextualSearch(ctx, search.ContextualRequest{
		Query:         query,
		TicketContext: ticketCtx,
		SessionID:     tabID,
		Config:        search.ContextualConfig{MaxResults: filters.MaxResults},
	})
	if err != nil {
		// contextual pass is best-effort; fall back to the general results
		s.logger.Warn("contextual search failed, using general results",
			zap.String("tab_id", tabID), zap.Error(err))
		contextual = &search.SearchResponse{Seq: general.Seq}
	}

	merged := search.MergeRanked(general.Results, contextual.Results)
	if ranked, err := s.client.Prioritize(ctx, merged, ticketCtx, tabID); err == nil && len(ranked) > 0 {
		merged = ranked
	}

	seq := contextual.Seq
	if general.Seq > seq {
		seq = general.Seq
	}
	applied, err := manager.ApplyResults(tabID, seq, merged)
	if err != nil {
		return nil, apperrors.NewNotFound("research tab", map[string]any{"tab_id": tabID})
	}
	s.pushHistory(ctx, agentID, query, len(merged))
	s.trackAsync("contextual-search", map[string]any{
		"query":        query,
		"ticket_id":    ticketCtx.TicketID,
		"result_count": len(merged),
		"session_id":   tabID,
	})

	return &SearchOutcome{
		Results:      merged,
		TotalCount:   len(merged),
		SearchTimeMS: general.SearchTimeMS + contextual.SearchTimeMS,
		Confidence:   search.Confidence(merged),
		Applied:      applied,
	}, nil
}

// ExtractContext derives insights from a ticket. Extraction failures
// degrade to neutral defaults rather than erroring.
func (s *SearchService) ExtractContext(ctx context.Context, ticketCtx domain.TicketContext) domain.ContextInsights {
	return s.client.ExtractContext(ctx, ticketCtx)
}

// Suggest feeds one keystroke into the agent's debouncer and returns the
// most recent suggestion set. The upstream fetch fires only after the quiet
// period, so rapid typing produces a single request.
func (s *SearchService) Suggest(agentID, query string) []string {
	box := s.suggesterFor(agentID)
	box.debouncer.Trigger(query, func(q string) {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout())
		defer cancel()
		resp, err := s.client.Search(ctx, search.SearchRequest{Query: q})
		if err != nil {
			s.logger.Debug("suggestion fetch failed", zap.String("query", q), zap.Error(err))
			return
		}
		box.set(resp.Suggestions)
	})
	return box.latest()
}

// History lists the agent's recent queries, newest first.
func (s *SearchService) History(ctx context.Context, agentID string) ([]domain.QueryRecord, error) {
	records, err := s.store.QueryHistory(ctx, agentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

// ClearHistory drops the agent's query history.
func (s *SearchService) ClearHistory(ctx context.Context, agentID string) error {
	if err := s.store.ClearQueryHistory(ctx, agentID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TrackEvent relays a research analytics event upstream without holding the
// caller for the delivery.
func (s *SearchService) TrackEvent(eventType string, payload map[string]any) {
	s.trackAsync(eventType, payload)
}

// trackAsync posts an analytics event from its own goroutine with a detached
// deadline. A slow analytics endpoint must never delay a search response.
func (s *SearchService) trackAsync(eventType string, payload map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout())
		defer cancel()
		s.client.TrackEvent(ctx, eventType, payload)
	}()
}

func (s *SearchService) pushHistory(ctx context.Context, agentID, query string, resultCount int) {
	record := domain.QueryRecord{
		Query:       query,
		ResultCount: resultCount,
		SearchedAt:  time.Now(),
	}
	if err := s.store.PushQuery(ctx, agentID, record); err != nil {
		s.logger.Warn("failed to record query history",
			zap.String("agent_id", agentID), zap.Error(err))
	}
}

func (s *SearchService) suggesterFor(agentID string) *suggestionBox {
	s.mu.Lock()
	defer s.mu.Unlock()
	box, ok := s.suggesters[agentID]
	if !ok {
		box = &suggestionBox{
			debouncer: search.NewDebouncer(s.cfg.SuggestDebounce(), s.cfg.SuggestMinQueryLen),
		}
		s.suggesters[agentID] = box
	}
	return box
}

// suggestionBox holds one agent's debounced suggestion state.
type suggestionBox struct {
	debouncer *search.Debouncer

	mu   sync.Mutex
	last []string
}

func (b *suggestionBox) set(s []string) {
	b.mu.Lock()
	b.last = s
	b.mu.Unlock()
}

func (b *suggestionBox) latest() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return []string{}
	}
	out := make([]string, len(b.last))
	copy(out, b.last)
	return out
}
