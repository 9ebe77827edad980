package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-workbench/internal/domain"
)

func activeCount(tabs []domain.ResearchTab) int {
	n := 0
	for _, tab := range tabs {
		if tab.IsActive {
			n++
		}
	}
	return n
}

func TestNewManagerSeedsOneActiveTab(t *testing.T) {
	m := NewManager("agent-1")
	tabs := m.Tabs()
	require.Len(t, tabs, 1)
	assert.True(t, tabs[0].IsActive)
	assert.NotEmpty(t, tabs[0].ID)
}

func TestSwitchToLeavesExactlyOneActive(t *testing.T) {
	m := NewManager("agent-1")
	first := m.Tabs()[0]
	second := m.CreateTab("VPN research")
	third := m.CreateTab("Printer research")

	require.NoError(t, m.SwitchTo(second.ID))
	tabs := m.Tabs()
	assert.Equal(t, 1, activeCount(tabs))
	assert.Equal(t, second.ID, m.ActiveTab().ID)

	require.NoError(t, m.SwitchTo(first.ID))
	assert.Equal(t, 1, activeCount(m.Tabs()))
	assert.Equal(t, first.ID, m.ActiveTab().ID)

	assert.Error(t, m.SwitchTo("no-such-tab"))
	assert.Equal(t, first.ID, m.ActiveTab().ID)
	_ = third
}

func TestCloseLastTabClearsInsteadOfRemoving(t *testing.T) {
	m := NewManager("agent-1")
	only := m.Tabs()[0]
	require.NoError(t, m.UpdateQuery(only.ID, "printer offline", domain.SearchFilters{MaxResults: 5}))
	_, err := m.ApplyResults(only.ID, 1, []domain.SearchResult{{ID: "kb-1"}})
	require.NoError(t, err)

	require.NoError(t, m.CloseTab(only.ID))

	tabs := m.Tabs()
	require.Len(t, tabs, 1, "tab count never drops to zero")
	assert.Equal(t, only.ID, tabs[0].ID)
	assert.Empty(t, tabs[0].Query)
	assert.Empty(t, tabs[0].Results)
	assert.True(t, tabs[0].IsActive)
}

func TestCloseActiveTabActivatesNeighbor(t *testing.T) {
	m := NewManager("agent-1")
	m.CreateTab("two")
	third := m.CreateTab("three")

	require.NoError(t, m.CloseTab(third.ID))
	tabs := m.Tabs()
	require.Len(t, tabs, 2)
	assert.Equal(t, 1, activeCount(tabs))
}

func TestTabIDsNeverReused(t *testing.T) {
	m := NewManager("agent-1")
	seen := map[string]bool{m.Tabs()[0].ID: true}
	for i := 0; i < 20; i++ {
		tab := m.CreateTab("")
		assert.False(t, seen[tab.ID], "id %s reused", tab.ID)
		seen[tab.ID] = true
		require.NoError(t, m.CloseTab(tab.ID))
	}
}

func TestDuplicateCopiesContentUnderFreshID(t *testing.T) {
	m := NewManager("agent-1")
	src := m.Tabs()[0]
	require.NoError(t, m.UpdateQuery(src.ID, "outlook crash", domain.SearchFilters{
		SourceTypes: []domain.SourceType{domain.SourceKnowledgeBase},
	}))
	_, err := m.ApplyResults(src.ID, 1, []domain.SearchResult{{ID: "kb-7"}})
	require.NoError(t, err)

	dup, err := m.DuplicateTab(src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "outlook crash", dup.Query)
	require.Len(t, dup.Results, 1)
	assert.Equal(t, "kb-7", dup.Results[0].ID)
	assert.Equal(t, dup.ID, m.ActiveTab().ID)
}

func TestReorderSwapsByIndex(t *testing.T) {
	m := NewManager("agent-1")
	m.CreateTab("two")
	m.CreateTab("three")
	before := m.Tabs()

	require.NoError(t, m.Reorder(0, 2))
	after := m.Tabs()
	assert.Equal(t, before[2].ID, after[0].ID)
	assert.Equal(t, before[0].ID, after[2].ID)

	assert.Error(t, m.Reorder(0, 9))
}

func TestApplyResultsDiscardsStaleResponses(t *testing.T) {
	m := NewManager("agent-1")
	tab := m.Tabs()[0]

	applied, err := m.ApplyResults(tab.ID, 2, []domain.SearchResult{{ID: "new"}})
	require.NoError(t, err)
	assert.True(t, applied)

	// a slower, earlier request completing late must not overwrite
	applied, err = m.ApplyResults(tab.ID, 1, []domain.SearchResult{{ID: "old"}})
	require.NoError(t, err)
	assert.False(t, applied)

	tabs := m.Tabs()
	require.Len(t, tabs[0].Results, 1)
	assert.Equal(t, "new", tabs[0].Results[0].ID)
}

func TestExportImportRoundTrip(t *testing.T) {
	m := NewManager("agent-1")
	require.NoError(t, m.UpdateQuery(m.Tabs()[0].ID, "first query", domain.SearchFilters{MaxResults: 3}))
	second := m.CreateTab("second")
	require.NoError(t, m.UpdateQuery(second.ID, "second query", domain.SearchFilters{
		Credibility: []domain.CredibilityLevel{domain.CredibilityHigh},
	}))

	blob, err := m.Export()
	require.NoError(t, err)

	fresh := NewManager("agent-2")
	require.NoError(t, fresh.Import(blob))

	tabs := fresh.Tabs()
	require.Len(t, tabs, 2)
	assert.Equal(t, "first query", tabs[0].Query)
	assert.Equal(t, 3, tabs[0].Filters.MaxResults)
	assert.Equal(t, "second query", tabs[1].Query)
	assert.Equal(t, 1, activeCount(tabs))

	// ids are freshly generated on import
	assert.NotEqual(t, m.Tabs()[0].ID, tabs[0].ID)
}

func TestImportRejectsEmptyBlob(t *testing.T) {
	m := NewManager("agent-1")
	assert.Error(t, m.Import([]byte(`{"version":1,"tabs":[]}`)))
	assert.Error(t, m.Import([]byte(`not json`)))
	require.Len(t, m.Tabs(), 1)
}
