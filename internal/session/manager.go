package session

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/spec-kit/support-workbench/internal/domain"
)

// Manager owns one agent's set of research tabs. It maintains three
// invariants: the tab count never drops below one (closing the last tab
// clears it instead), exactly one tab is active at any time, and tab ids
// are ULIDs that are never reused within a session.
type Manager struct {
	mu      sync.Mutex
	agentID string
	tabs    []*domain.ResearchTab
	entropy *ulid.MonotonicEntropy
}

// NewManager creates a manager seeded with one empty active tab.
func NewManager(agentID string) *Manager {
	m := &Manager{
		agentID: agentID,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	first := m.newTab("Search 1")
	first.IsActive = true
	m.tabs = []*domain.ResearchTab{first}
	return m
}

func (m *Manager) newTab(label string) *domain.ResearchTab {
	return &domain.ResearchTab{
		ID:        ulid.MustNew(ulid.Timestamp(time.Now()), m.entropy).String(),
		Label:     label,
		Filters:   domain.SearchFilters{},
		Results:   []domain.SearchResult{},
		CreatedAt: time.Now(),
	}
}

// CreateTab appends a new tab and makes it active.
func (m *Manager) CreateTab(label string) domain.ResearchTab {
	m.mu.Lock()
	defer m.mu.Unlock()

	if label == "" {
		label = fmt.Sprintf("Search %d", len(m.tabs)+1)
	}
	tab := m.newTab(label)
	m.tabs = append(m.tabs, tab)
	m.activateLocked(tab.ID)
	return *tab
}

// CloseTab removes a tab. Closing the sole remaining tab clears its
// query, filters and results instead of removing it.
func (m *Manager) CloseTab(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("tab %s not found", id)
	}
	if len(m.tabs) == 1 {
		tab := m.tabs[0]
		tab.Query = ""
		tab.Filters = domain.SearchFilters{}
		tab.Results = []domain.SearchResult{}
		tab.TicketContext = nil
		tab.IsActive = true
		return nil
	}

	wasActive := m.tabs[idx].IsActive
	m.tabs = append(m.tabs[:idx], m.tabs[idx+1:]...)
	if wasActive {
		next := idx
		if next >= len(m.tabs) {
			next = len(m.tabs) - 1
		}
		m.activateLocked(m.tabs[next].ID)
	}
	return nil
}

// SwitchTo activates the given tab and deactivates every other one.
func (m *Manager) SwitchTo(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexLocked(id) < 0 {
		return fmt.Errorf("tab %s not found", id)
	}
	m.activateLocked(id)
	return nil
}

// DuplicateTab copies a tab's query, filters, results and ticket context
// under a fresh id; the copy becomes active.
func (m *Manager) DuplicateTab(id string) (domain.ResearchTab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return domain.ResearchTab{}, fmt.Errorf("tab %s not found", id)
	}
	src := m.tabs[idx]
	copyTab := m.newTab(src.Label + " (copy)")
	copyTab.Query = src.Query
	copyTab.Filters = src.Filters
	copyTab.Results = append([]domain.SearchResult{}, src.Results...)
	if src.TicketContext != nil {
		ctx := *src.TicketContext
		copyTab.TicketContext = &ctx
	}
	m.tabs = append(m.tabs, copyTab)
	m.activateLocked(copyTab.ID)
	return *copyTab, nil
}

// Reorder swaps the tabs at the two indices (drag-and-drop semantics).
func (m *Manager) Reorder(from, to int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if from < 0 || from >= len(m.tabs) || to < 0 || to >= len(m.tabs) {
		return fmt.Errorf("reorder out of range: %d -> %d", from, to)
	}
	m.tabs[from], m.tabs[to] = m.tabs[to], m.tabs[from]
	return nil
}

// UpdateQuery records the query and filters a search was issued with.
func (m *Manager) UpdateQuery(id, query string, filters domain.SearchFilters) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("tab %s not found", id)
	}
	m.tabs[idx].Query = query
	m.tabs[idx].Filters = filters
	return nil
}

// ApplyResults stores a search response on a tab unless a newer response
// has already been applied. Returns false when the response is stale.
func (m *Manager) ApplyResults(id string, seq uint64, results []domain.SearchResult) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return false, fmt.Errorf("tab %s not found", id)
	}
	tab := m.tabs[idx]
	if seq <= tab.LastSeq {
		return false, nil
	}
	tab.LastSeq = seq
	tab.Results = results
	return true, nil
}

// SetTicketContext attaches ticket context to a tab.
func (m *Manager) SetTicketContext(id string, ctx *domain.TicketContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("tab %s not found", id)
	}
	m.tabs[idx].TicketContext = ctx
	return nil
}

// Tabs returns a snapshot of the tab set in order.
func (m *Manager) Tabs() []domain.ResearchTab {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.ResearchTab, 0, len(m.tabs))
	for _, tab := range m.tabs {
		out = append(out, *tab)
	}
	return out
}

// ActiveTab returns the currently active tab.
func (m *Manager) ActiveTab() domain.ResearchTab {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tab := range m.tabs {
		if tab.IsActive {
			return *tab
		}
	}
	// unreachable while invariants hold; fall back to the first tab
	return *m.tabs[0]
}

// Export serializes the full tab set to a JSON blob.
func (m *Manager) Export() ([]byte, error) {
	return json.Marshal(exportBlob{Version: 1, Tabs: m.Tabs()})
}

// Import replaces the tab set with the blob's content under fresh ids.
func (m *Manager) Import(blob []byte) error {
	var parsed exportBlob
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return fmt.Errorf("parse session blob: %w", err)
	}
	if len(parsed.Tabs) == 0 {
		return fmt.Errorf("session blob contains no tabs")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	replacement := make([]*domain.ResearchTab, 0, len(parsed.Tabs))
	for _, imported := range parsed.Tabs {
		tab := m.newTab(imported.Label)
		tab.Query = imported.Query
		tab.Filters = imported.Filters
		tab.Results = imported.Results
		if tab.Results == nil {
			tab.Results = []domain.SearchResult{}
		}
		tab.TicketContext = imported.TicketContext
		replacement = append(replacement, tab)
	}
	m.tabs = replacement
	m.activateLocked(m.tabs[0].ID)
	return nil
}

// Restore replaces the tab set from a saved session snapshot.
func (m *Manager) Restore(tabs []domain.ResearchTab) error {
	blob, err := json.Marshal(exportBlob{Version: 1, Tabs: tabs})
	if err != nil {
		return err
	}
	return m.Import(blob)
}

type exportBlob struct {
	Version int                  `json:"version"`
	Tabs    []domain.ResearchTab `json:"tabs"`
}

func (m *Manager) indexLocked(id string) int {
	for i, tab := range m.tabs {
		if tab.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) activateLocked(id string) {
	for _, tab := range m.tabs {
		tab.IsActive = tab.ID == id
	}
}
