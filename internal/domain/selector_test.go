package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { SetClock(nil) })
}

func fixAt(age time.Duration, accuracy float64) Fix {
	return Fix{
		Latitude:  59.3293,
		Longitude: 18.0686,
		Accuracy:  accuracy,
		Time:      testNow.Add(-age),
	}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name string
		fix  Fix
		want bool
	}{
		{"fresh and accurate", fixAt(5*time.Second, 10), true},
		{"exactly at the staleness bound", fixAt(MaxFixAge, 10), true},
		{"older than the staleness bound", fixAt(MaxFixAge+time.Second, 1), false},
		{"unknown accuracy", fixAt(5*time.Second, UnknownAccuracy), false},
		{"zero timestamp", Fix{Accuracy: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eligible(tt.fix, testNow))
		})
	}
}

func TestSelectBest_EmptyBatch(t *testing.T) {
	freezeClock(t)

	_, ok := SelectBest(nil)
	assert.False(t, ok)

	_, ok = SelectBest([]Fix{})
	assert.False(t, ok)
}

func TestSelectBest_StaleDiscardedDespiteAccuracy(t *testing.T) {
	freezeClock(t)

	recent := fixAt(5*time.Second, 10)
	staleButSharp := fixAt(40*time.Second, 1)

	best, ok := SelectBest([]Fix{recent, staleButSharp})
	require.True(t, ok)
	assert.Equal(t, recent, best)
}

func TestSelectBest_MoreAccurateWinsAtSameAge(t *testing.T) {
	freezeClock(t)

	coarse := fixAt(time.Second, 50)
	sharp := fixAt(time.Second, 5)

	best, ok := SelectBest([]Fix{coarse, sharp})
	require.True(t, ok)
	assert.Equal(t, sharp, best)
}

func TestSelectBest_NewerWinsAtComparableAccuracy(t *testing.T) {
	freezeClock(t)

	older := fixAt(20*time.Second, 10)
	newerSlightlyCoarser := fixAt(2*time.Second, 30)

	best, ok := SelectBest([]Fix{older, newerSlightlyCoarser})
	require.True(t, ok)
	assert.Equal(t, newerSlightlyCoarser, best)
}

func TestSelectBest_NewerLosesOnSignificantAccuracyLoss(t *testing.T) {
	freezeClock(t)

	older := fixAt(20*time.Second, 10)
	newerButBlunt := fixAt(2*time.Second, 10+MaxAccuracyLoss+1)

	best, ok := SelectBest([]Fix{older, newerButBlunt})
	require.True(t, ok)
	assert.Equal(t, older, best)
}

func TestSelectBest_TieKeepsEarlierCandidate(t *testing.T) {
	freezeClock(t)

	first := fixAt(3*time.Second, 10)
	second := fixAt(3*time.Second, 10)
	second.Longitude += 0.001

	best, ok := SelectBest([]Fix{first, second})
	require.True(t, ok)
	assert.Equal(t, first, best)
}

func TestSelectBest_AllFilteredOut(t *testing.T) {
	freezeClock(t)

	batch := []Fix{
		fixAt(45*time.Second, 5),
		fixAt(time.Second, UnknownAccuracy),
		{Latitude: 1, Longitude: 2, Accuracy: 10}, // no timestamp
	}

	_, ok := SelectBest(batch)
	assert.False(t, ok)
}

func TestSelectBest_Deterministic(t *testing.T) {
	freezeClock(t)

	batch := []Fix{
		fixAt(10*time.Second, 25),
		fixAt(4*time.Second, 40),
		fixAt(1*time.Second, 8),
		fixAt(29*time.Second, 3),
	}

	first, ok := SelectBest(batch)
	require.True(t, ok)

	for range 10 {
		again, ok := SelectBest(batch)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}
