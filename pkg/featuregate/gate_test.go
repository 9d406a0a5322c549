package featuregate_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/condition"
	"github.com/dmitrymomot/gatekit/pkg/featuregate"
)

// fakeSegments is a SegmentChecker backed by a static membership map.
type fakeSegments struct {
	members map[string][]string // segment slug -> user IDs
}

func (f *fakeSegments) IsMember(_ context.Context, segmentSlug, userID string) (bool, error) {
	for _, id := range f.members[segmentSlug] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSegments) MembersCount(_ context.Context, segmentSlug string) (int64, error) {
	return int64(len(f.members[segmentSlug])), nil
}

func newSubject(attrs map[string]any) featuregate.Subject {
	return featuregate.Subject{ID: uuid.New(), Attributes: attrs}
}

func TestIsActiveForUserPipeline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("DisabledFlagIsInactiveForEveryone", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil)
		flag := &featuregate.Flag{Slug: "off", Enabled: false, RolloutPercentage: 100}
		assert.False(t, gate.IsActiveForUser(ctx, flag, newSubject(nil)))
	})

	t.Run("NilFlagIsInactive", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil)
		assert.False(t, gate.IsActiveForUser(ctx, nil, newSubject(nil)))
	})

	t.Run("FutureStartDateIsInactive", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		starts := now.Add(time.Hour)
		gate := featuregate.New(nil, featuregate.WithClock(func() time.Time { return now }))

		flag := &featuregate.Flag{Slug: "soon", Enabled: true, RolloutPercentage: 100, StartsAt: &starts}
		assert.False(t, gate.IsActiveForUser(ctx, flag, newSubject(nil)))
	})

	t.Run("PastEndDateIsInactive", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		ended := now.Add(-time.Hour)
		gate := featuregate.New(nil, featuregate.WithClock(func() time.Time { return now }))

		flag := &featuregate.Flag{Slug: "done", Enabled: true, RolloutPercentage: 100, EndsAt: &ended}
		assert.False(t, gate.IsActiveForUser(ctx, flag, newSubject(nil)))
	})

	t.Run("UnboundedWindowIsUnaffectedByDates", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil)
		flag := &featuregate.Flag{Slug: "open", Enabled: true, RolloutPercentage: 100}
		assert.True(t, gate.IsActiveForUser(ctx, flag, newSubject(nil)))
	})

	t.Run("ConditionsAreANDCombined", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil)
		flag := &featuregate.Flag{
			Slug: "admins-18plus", Enabled: true, RolloutPercentage: 100,
			Conditions: []condition.Condition{
				{Field: "role", Operator: condition.OpEquals, Value: "admin"},
				{Field: "age", Operator: condition.OpGreaterEqual, Value: 18},
			},
		}

		assert.False(t, gate.IsActiveForUser(ctx, flag, newSubject(map[string]any{"role": "admin", "age": 17})))
		assert.True(t, gate.IsActiveForUser(ctx, flag, newSubject(map[string]any{"role": "admin", "age": 21})))
		assert.False(t, gate.IsActiveForUser(ctx, flag, newSubject(map[string]any{"role": "member", "age": 21})))
	})

	t.Run("SegmentMembershipAnyOf", func(t *testing.T) {
		t.Parallel()
		member := uuid.New()
		outsider := uuid.New()

		gate := featuregate.New(nil, featuregate.WithSegments(&fakeSegments{
			members: map[string][]string{"beta-testers": {member.String()}},
		}))

		flag := &featuregate.Flag{
			Slug: "beta", Enabled: true, RolloutPercentage: 100,
			Segments: []string{"beta-testers", "staff"},
		}

		assert.True(t, gate.IsActiveForUser(ctx, flag, featuregate.Subject{ID: member}))
		assert.False(t, gate.IsActiveForUser(ctx, flag, featuregate.Subject{ID: outsider}))
	})

	t.Run("SegmentRestrictionWithoutCheckerIsInactive", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil)
		flag := &featuregate.Flag{
			Slug: "beta", Enabled: true, RolloutPercentage: 100,
			Segments: []string{"beta-testers"},
		}
		assert.False(t, gate.IsActiveForUser(ctx, flag, newSubject(nil)))
	})
}

func TestRolloutBucketing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Deterministic", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		first := featuregate.RolloutBucket("new-ui", id)
		for range 50 {
			assert.Equal(t, first, featuregate.RolloutBucket("new-ui", id))
		}
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, 100)
	})

	t.Run("ZeroPercentExcludesEveryone", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil)
		flag := &featuregate.Flag{Slug: "dark", Enabled: true, RolloutPercentage: 0}
		for range 100 {
			assert.False(t, gate.IsActiveForUser(ctx, flag, newSubject(nil)))
		}
	})

	t.Run("HundredPercentExcludesNobody", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil)
		flag := &featuregate.Flag{Slug: "ga", Enabled: true, RolloutPercentage: 100}
		for range 100 {
			assert.True(t, gate.IsActiveForUser(ctx, flag, newSubject(nil)))
		}
	})

	t.Run("MonotoneUnderIncreasingPercentage", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil)

		subjects := make([]featuregate.Subject, 200)
		for i := range subjects {
			subjects[i] = newSubject(nil)
		}

		wasActive := make([]bool, len(subjects))
		for pct := 0; pct <= 100; pct += 5 {
			flag := &featuregate.Flag{Slug: "ramp", Enabled: true, RolloutPercentage: pct}
			for i, subj := range subjects {
				active := gate.IsActiveForUser(ctx, flag, subj)
				if wasActive[i] {
					assert.True(t, active, "user flipped active->inactive at %d%%", pct)
				}
				wasActive[i] = active
			}
		}

		for _, active := range wasActive {
			assert.True(t, active)
		}
	})

	t.Run("HalfRolloutHitsRoughlyHalf", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil)
		flag := &featuregate.Flag{Slug: "new-ui", Enabled: true, RolloutPercentage: 50}

		subjects := make([]featuregate.Subject, 1000)
		for i := range subjects {
			subjects[i] = featuregate.Subject{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("user-%d", i)))}
		}

		firstPass := make([]bool, len(subjects))
		active := 0
		for i, subj := range subjects {
			firstPass[i] = gate.IsActiveForUser(ctx, flag, subj)
			if firstPass[i] {
				active++
			}
		}

		// Statistical tolerance around the 50% target.
		assert.InDelta(t, 500, active, 50, "active fraction outside 45-55%% band: %d/1000", active)

		// The partition must be stable across a second full pass.
		for i, subj := range subjects {
			assert.Equal(t, firstPass[i], gate.IsActiveForUser(ctx, flag, subj))
		}
	})

	t.Run("BucketsDifferAcrossFlags", func(t *testing.T) {
		t.Parallel()
		// Not guaranteed per user, but across many users the buckets
		// for two flags must not be identical wholesale.
		differs := false
		for range 100 {
			id := uuid.New()
			if featuregate.RolloutBucket("flag-a", id) != featuregate.RolloutBucket("flag-b", id) {
				differs = true
				break
			}
		}
		assert.True(t, differs)
	})
}

func TestIsFeatureEnabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := featuregate.NewMemoryStore(
		&featuregate.Flag{Name: "New UI", Slug: "new-ui", Enabled: true, RolloutPercentage: 100},
		&featuregate.Flag{Name: "Dark Launch", Slug: "dark-launch", Enabled: false, RolloutPercentage: 100},
	)
	require.NoError(t, err)
	gate := featuregate.New(store)

	t.Run("UnknownSlugIsInactiveNotError", func(t *testing.T) {
		t.Parallel()
		enabled, err := gate.IsFeatureEnabled(ctx, "no-such-flag", nil)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("NilSubjectReturnsGlobalSwitch", func(t *testing.T) {
		t.Parallel()
		enabled, err := gate.IsFeatureEnabled(ctx, "new-ui", nil)
		require.NoError(t, err)
		assert.True(t, enabled)

		enabled, err = gate.IsFeatureEnabled(ctx, "dark-launch", nil)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("SubjectRunsFullPipeline", func(t *testing.T) {
		t.Parallel()
		subj := newSubject(nil)
		enabled, err := gate.IsFeatureEnabled(ctx, "new-ui", &subj)
		require.NoError(t, err)
		assert.True(t, enabled)
	})

	t.Run("CachedLookup", func(t *testing.T) {
		t.Parallel()
		cachedGate := featuregate.New(store,
			featuregate.WithCache(featuregate.NewLRUFlagCache(8, time.Minute)))

		for range 3 {
			enabled, err := cachedGate.IsFeatureEnabled(ctx, "new-ui", nil)
			require.NoError(t, err)
			assert.True(t, enabled)
		}
	})
}

func TestEnabledFeatures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	store, err := featuregate.NewMemoryStore(
		&featuregate.Flag{Name: "A", Slug: "a", Enabled: true, RolloutPercentage: 100},
		&featuregate.Flag{Name: "B", Slug: "b", Enabled: false, RolloutPercentage: 100},
		&featuregate.Flag{Name: "C", Slug: "c", Enabled: true, RolloutPercentage: 100, EndsAt: &past},
		&featuregate.Flag{Name: "D", Slug: "d", Enabled: true, RolloutPercentage: 100, StartsAt: &future},
		&featuregate.Flag{Name: "E", Slug: "e", Enabled: true, RolloutPercentage: 100,
			Conditions: []condition.Condition{{Field: "plan", Operator: condition.OpEquals, Value: "pro"}}},
	)
	require.NoError(t, err)
	gate := featuregate.New(store)

	t.Run("NoSubjectReturnsAllActiveFlags", func(t *testing.T) {
		t.Parallel()
		slugs, err := gate.EnabledFeatures(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "e"}, slugs)
	})

	t.Run("SubjectNarrowsByTargeting", func(t *testing.T) {
		t.Parallel()
		free := newSubject(map[string]any{"plan": "free"})
		slugs, err := gate.EnabledFeatures(ctx, &free)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, slugs)

		pro := newSubject(map[string]any{"plan": "pro"})
		slugs, err = gate.EnabledFeatures(ctx, &pro)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "e"}, slugs)
	})
}

func TestEstimateActiveUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	segments := &fakeSegments{members: map[string][]string{
		"beta":  {"u1", "u2", "u3", "u4"},
		"staff": {"u5", "u6"},
	}}

	t.Run("SegmentQualifyingPopulation", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil, featuregate.WithSegments(segments))
		flag := &featuregate.Flag{
			Slug: "x", Enabled: true, RolloutPercentage: 50,
			Segments: []string{"beta", "staff"},
		}

		n, err := gate.EstimateActiveUsers(ctx, flag)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n) // 50% of 6
	})

	t.Run("TotalPopulationWhenUnrestricted", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil, featuregate.WithPopulationCounter(
			func(context.Context) (int64, error) { return 1000, nil }))
		flag := &featuregate.Flag{Slug: "x", Enabled: true, RolloutPercentage: 25}

		n, err := gate.EstimateActiveUsers(ctx, flag)
		require.NoError(t, err)
		assert.Equal(t, int64(250), n)
	})

	t.Run("DisabledFlagEstimatesZero", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil, featuregate.WithPopulationCounter(
			func(context.Context) (int64, error) { return 1000, nil }))
		flag := &featuregate.Flag{Slug: "x", Enabled: false, RolloutPercentage: 100}

		n, err := gate.EstimateActiveUsers(ctx, flag)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("ZeroPopulationEstimatesZero", func(t *testing.T) {
		t.Parallel()
		gate := featuregate.New(nil)
		flag := &featuregate.Flag{Slug: "x", Enabled: true, RolloutPercentage: 100}

		n, err := gate.EstimateActiveUsers(ctx, flag)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
