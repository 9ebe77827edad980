package timetrack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-workbench/internal/domain"
)

// fakeClock advances only when told to.
type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) now() time.Time { return f.current }

func (f *fakeClock) advance(d time.Duration) { f.current = f.current.Add(d) }

func TestStartOpensInvestigationEntry(t *testing.T) {
	clock := newFakeClock()
	tracker := Start("T-1", "agent-1", clock.now)

	session := tracker.Session()
	assert.Equal(t, domain.SessionActive, session.Status)
	require.Len(t, session.Entries, 1)
	assert.Equal(t, domain.WorkInvestigation, session.Entries[0].Phase)
	assert.Nil(t, session.Entries[0].EndTime)
}

func TestChangePhaseClosesPreviousEntry(t *testing.T) {
	clock := newFakeClock()
	tracker := Start("T-1", "agent-1", clock.now)

	clock.advance(10 * time.Minute)
	require.NoError(t, tracker.ChangePhase(domain.WorkAnalysis, "checking logs"))

	session := tracker.Session()
	require.Len(t, session.Entries, 2)
	require.NotNil(t, session.Entries[0].EndTime)
	assert.Equal(t, 10*time.Minute, session.Entries[0].Duration)
	assert.Equal(t, domain.WorkAnalysis, session.Entries[1].Phase)
	assert.Nil(t, session.Entries[1].EndTime)
}

func TestChangePhaseSamePhaseIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	tracker := Start("T-1", "agent-1", clock.now)

	require.NoError(t, tracker.ChangePhase(domain.WorkAnalysis, ""))
	require.NoError(t, tracker.ChangePhase(domain.WorkAnalysis, ""))

	session := tracker.Session()
	// one investigation entry plus exactly one analysis entry
	require.Len(t, session.Entries, 2)
	assert.Equal(t, domain.WorkAnalysis, session.Entries[1].Phase)
}

func TestChangePhaseRejectsUnknownPhase(t *testing.T) {
	tracker := Start("T-1", "agent-1", newFakeClock().now)
	assert.ErrorIs(t, tracker.ChangePhase("daydreaming", ""), ErrUnknownPhase)
}

func TestPauseResumeCycle(t *testing.T) {
	clock := newFakeClock()
	tracker := Start("T-1", "agent-1", clock.now)

	clock.advance(30 * time.Minute)
	require.NoError(t, tracker.ChangePhase(domain.WorkImplementation, ""))
	clock.advance(15 * time.Minute)
	require.NoError(t, tracker.Pause("lunch"))

	session := tracker.Session()
	assert.Equal(t, domain.SessionPaused, session.Status)
	require.Len(t, session.Breaks, 1)
	assert.Nil(t, session.Breaks[0].End)
	for _, entry := range session.Entries {
		assert.NotNil(t, entry.EndTime, "pause closes the open entry")
	}

	assert.ErrorIs(t, tracker.ChangePhase(domain.WorkTesting, ""), ErrNotActive)
	assert.ErrorIs(t, tracker.Pause("again"), ErrNotActive)

	clock.advance(10 * time.Minute)
	require.NoError(t, tracker.ResumeWork())

	session = tracker.Session()
	assert.Equal(t, domain.SessionActive, session.Status)
	require.NotNil(t, session.Breaks[0].End)
	assert.Equal(t, 10*time.Minute, session.Breaks[0].Duration)
	last := session.Entries[len(session.Entries)-1]
	assert.Equal(t, domain.WorkImplementation, last.Phase, "resume reopens the prior phase")
	assert.Nil(t, last.EndTime)
}

func TestResumeRequiresPaused(t *testing.T) {
	tracker := Start("T-1", "agent-1", newFakeClock().now)
	assert.ErrorIs(t, tracker.ResumeWork(), ErrNotPaused)
}

func TestEndComputesEfficiency(t *testing.T) {
	clock := newFakeClock()
	tracker := Start("T-1", "agent-1", clock.now)

	// 3600s total with a 600s break: efficiency 83.33
	clock.advance(30 * time.Minute)
	require.NoError(t, tracker.Pause(""))
	clock.advance(10 * time.Minute)
	require.NoError(t, tracker.ResumeWork())
	clock.advance(20 * time.Minute)

	session, err := tracker.End()
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, session.Status)
	require.NotNil(t, session.SessionEnd)
	assert.Equal(t, 83.33, session.Efficiency)

	_, err = tracker.End()
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestReportDurationsBalance(t *testing.T) {
	clock := newFakeClock()
	tracker := Start("T-1", "agent-1", clock.now)

	clock.advance(20 * time.Minute)
	require.NoError(t, tracker.ChangePhase(domain.WorkAnalysis, ""))
	clock.advance(10 * time.Minute)
	require.NoError(t, tracker.Pause("coffee"))
	clock.advance(5 * time.Minute)
	require.NoError(t, tracker.ResumeWork())
	clock.advance(25 * time.Minute)

	session, err := tracker.End()
	require.NoError(t, err)
	report := Report(session)

	var entrySum time.Duration
	for _, entry := range session.Entries {
		entrySum += entry.Duration
	}
	var breakSum time.Duration
	for _, b := range session.Breaks {
		breakSum += b.Duration
	}

	assert.Equal(t, report.TotalDuration, entrySum+breakSum)
	assert.Equal(t, report.ActiveWork, entrySum)
	assert.Equal(t, report.BreakTime, breakSum)
	assert.Equal(t, 20*time.Minute, report.PhaseBreakdown[domain.WorkInvestigation])
	assert.Equal(t, 35*time.Minute, report.PhaseBreakdown[domain.WorkAnalysis])
}

func TestReportZeroDurationSession(t *testing.T) {
	clock := newFakeClock()
	tracker := Start("T-1", "agent-1", clock.now)
	session, err := tracker.End()
	require.NoError(t, err)

	report := Report(session)
	assert.Equal(t, 0.0, report.Efficiency)
	assert.Equal(t, time.Duration(0), report.TotalDuration)
}

func TestLowEfficiencyRecommendation(t *testing.T) {
	clock := newFakeClock()
	tracker := Start("T-1", "agent-1", clock.now)

	clock.advance(10 * time.Minute)
	require.NoError(t, tracker.Pause(""))
	clock.advance(50 * time.Minute)
	require.NoError(t, tracker.ResumeWork())

	session, err := tracker.End()
	require.NoError(t, err)
	report := Report(session)
	assert.Less(t, report.Efficiency, 70.0)
	assert.Contains(t, report.Recommendations[0], "reducing interruptions")
}
