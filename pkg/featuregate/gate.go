package featuregate

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/condition"
	"github.com/dmitrymomot/gatekit/pkg/logger"
)

// Gate evaluates feature flags against subjects. Evaluation is
// read-only and free of shared mutable state, so a single Gate is safe
// for unbounded concurrent use.
type Gate struct {
	store      Store
	cache      FlagCache
	segments   SegmentChecker
	population PopulationCounter
	log        *slog.Logger
	now        func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for non-fatal evaluation problems.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// WithCache puts a read-through cache in front of flag lookups.
func WithCache(cache FlagCache) Option {
	return func(g *Gate) {
		g.cache = cache
	}
}

// WithSegments wires segment membership checks. Flags that restrict
// themselves to segments evaluate to inactive without one.
func WithSegments(sc SegmentChecker) Option {
	return func(g *Gate) {
		g.segments = sc
	}
}

// WithPopulationCounter supplies the total user population size for
// active-user estimates of flags without segment restrictions.
func WithPopulationCounter(counter PopulationCounter) Option {
	return func(g *Gate) {
		g.population = counter
	}
}

// WithClock overrides the time source. Intended for tests exercising
// activation windows.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a Gate backed by the given store.
func New(store Store, opts ...Option) *Gate {
	g := &Gate{
		store: store,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsActiveForUser runs the full targeting pipeline for one subject.
// Each step can short-circuit to inactive; the order is fixed:
// global switch, activation window, rollout bucket, segment
// membership, attribute conditions.
func (g *Gate) IsActiveForUser(ctx context.Context, flag *Flag, subject Subject) bool {
	if flag == nil || !flag.Enabled {
		return false
	}

	now := g.now()
	if flag.StartsAt != nil && now.Before(*flag.StartsAt) {
		return false
	}
	if flag.EndsAt != nil && now.After(*flag.EndsAt) {
		return false
	}

	if flag.RolloutPercentage < 100 {
		if RolloutBucket(flag.Slug, subject.ID) >= flag.RolloutPercentage {
			return false
		}
	}

	if len(flag.Segments) > 0 {
		if !g.inAnySegment(ctx, flag, subject.ID) {
			return false
		}
	}

	if len(flag.Conditions) > 0 {
		if !condition.MatchAll(subject.Attributes, flag.Conditions) {
			return false
		}
	}

	return true
}

// IsFeatureEnabled resolves a flag by slug and evaluates it. An
// unknown slug is not an error: it reports inactive. When subject is
// nil the raw global switch is returned without targeting.
func (g *Gate) IsFeatureEnabled(ctx context.Context, slug string, subject *Subject) (bool, error) {
	flag, err := g.lookup(ctx, slug)
	if err != nil {
		return false, err
	}
	if flag == nil {
		return false, nil
	}
	if subject == nil {
		return flag.Enabled, nil
	}
	return g.IsActiveForUser(ctx, flag, *subject), nil
}

// EnabledFeatures returns the slugs of all flags that are globally
// enabled and inside their activation window. With a subject, the list
// is further narrowed to flags active for that subject. Slugs are
// sorted for stable output.
func (g *Gate) EnabledFeatures(ctx context.Context, subject *Subject) ([]string, error) {
	if g.store == nil {
		return nil, ErrStoreNotInitialized
	}

	flags, err := g.store.ListFlags(ctx)
	if err != nil {
		return nil, err
	}

	now := g.now()
	slugs := make([]string, 0, len(flags))
	for _, flag := range flags {
		if !flag.IsActiveAt(now) {
			continue
		}
		if subject != nil && !g.IsActiveForUser(ctx, flag, *subject) {
			continue
		}
		slugs = append(slugs, flag.Slug)
	}

	sort.Strings(slugs)
	return slugs, nil
}

// EstimateActiveUsers approximates how many users the flag is active
// for: the rollout percentage applied to the qualifying population
// (the summed cached counts of the flag's segments, or the total
// population when unrestricted). This is deliberately an estimate, not
// a per-user evaluation sweep.
func (g *Gate) EstimateActiveUsers(ctx context.Context, flag *Flag) (int64, error) {
	if flag == nil || !flag.Enabled {
		return 0, nil
	}

	var population int64
	switch {
	case len(flag.Segments) > 0:
		if g.segments == nil {
			return 0, nil
		}
		for _, seg := range flag.Segments {
			n, err := g.segments.MembersCount(ctx, seg)
			if err != nil {
				return 0, err
			}
			population += n
		}
	case g.population != nil:
		n, err := g.population(ctx)
		if err != nil {
			return 0, err
		}
		population = n
	}

	if population <= 0 {
		return 0, nil
	}
	return population * int64(flag.RolloutPercentage) / 100, nil
}

// lookup resolves a flag through the cache, treating an unknown slug
// as a nil flag rather than an error.
func (g *Gate) lookup(ctx context.Context, slug string) (*Flag, error) {
	if g.store == nil {
		return nil, ErrStoreNotInitialized
	}

	if g.cache != nil {
		if flag, ok := g.cache.Get(ctx, slug); ok {
			return flag, nil
		}
	}

	flag, err := g.store.GetFlag(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrFlagNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if g.cache != nil {
		g.cache.Set(ctx, slug, flag)
	}
	return flag, nil
}

func (g *Gate) inAnySegment(ctx context.Context, flag *Flag, userID uuid.UUID) bool {
	if g.segments == nil {
		g.log.WarnContext(ctx, "flag restricted to segments but no segment checker configured",
			logger.Flag(flag.Slug))
		return false
	}

	for _, seg := range flag.Segments {
		member, err := g.segments.IsMember(ctx, seg, userID.String())
		if err != nil {
			g.log.ErrorContext(ctx, "segment membership check failed",
				logger.Flag(flag.Slug), logger.Segment(seg),
				logger.UserID(userID.String()), logger.Error(err))
			continue
		}
		if member {
			return true
		}
	}
	return false
}

// RolloutBucket assigns a subject its stable position in [0,100) for
// percentage rollouts. The bucket depends on both the flag slug and
// the user ID, so a user lands in independent buckets across flags,
// and it is a pure FNV-1a hash: repeated evaluation is sticky across
// calls and process restarts.
func RolloutBucket(flagSlug string, userID uuid.UUID) int {
	h := fnv.New32a()
	h.Write([]byte(flagSlug))
	h.Write([]byte(":"))
	h.Write([]byte(userID.String()))
	return int(h.Sum32() % 100)
}
