// Package refcache puts a bounded TTL cache in front of the reference-data
// lookups of a processor.Repository.
//
// Only hits are cached. Tokens, sessions, participants and writes always go
// to the wrapped repository.
package refcache

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter"

	"github.com/PratikDhanave/gamedata-server/internal/models"
	"github.com/PratikDhanave/gamedata-server/internal/processor"
)

// Repository wraps a processor.Repository with a cache for reference reads.
type Repository struct {
	processor.Repository
	cache otter.Cache[string, any]
}

// New wraps repo with a cache of up to size entries that expire after ttl.
func New(repo processor.Repository, size int, ttl time.Duration) (*Repository, error) {
	if size <= 0 {
		return nil, fmt.Errorf("refcache: size must be positive, got %d", size)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("refcache: ttl must be positive, got %s", ttl)
	}
	cache, err := otter.MustBuilder[string, any](size).
		Cost(func(string, any) uint32 { return 1 }).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("refcache: build cache: %w", err)
	}
	return &Repository{Repository: repo, cache: cache}, nil
}

// Wrap returns repo unchanged when ttl is zero and a cached repository otherwise.
func Wrap(repo processor.Repository, size int, ttl time.Duration) (processor.Repository, error) {
	if ttl == 0 {
		return repo, nil
	}
	c, err := New(repo, size, ttl)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of cached entries.
func (c *Repository) Len() int { return c.cache.Size() }

// Purge drops every cached entry.
func (c *Repository) Purge() { c.cache.Clear() }

// Close stops the cache's background work.
func (c *Repository) Close() { c.cache.Close() }

func cached[T any](c *Repository, key string, load func() (T, error)) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.cache.Set(key, v)
	return v, nil
}

func (c *Repository) GameByID(ctx context.Context, id int64) (models.Game, error) {
	return cached(c, fmt.Sprintf("game/id/%d", id), func() (models.Game, error) {
		return c.Repository.GameByID(ctx, id)
	})
}

func (c *Repository) GameByCode(ctx context.Context, code string) (models.Game, error) {
	return cached(c, "game/code/"+code, func() (models.Game, error) {
		return c.Repository.GameByCode(ctx, code)
	})
}

func (c *Repository) GameVersionByID(ctx context.Context, id int64) (models.GameVersion, error) {
	return cached(c, fmt.Sprintf("version/id/%d", id), func() (models.GameVersion, error) {
		return c.Repository.GameVersionByID(ctx, id)
	})
}

func (c *Repository) GameVersionByCode(ctx context.Context, gameID int64, code string) (models.GameVersion, error) {
	return cached(c, fmt.Sprintf("version/%d/%s", gameID, code), func() (models.GameVersion, error) {
		return c.Repository.GameVersionByCode(ctx, gameID, code)
	})
}

func (c *Repository) OrganizationByID(ctx context.Context, id int64) (models.Organization, error) {
	return cached(c, fmt.Sprintf("org/id/%d", id), func() (models.Organization, error) {
		return c.Repository.OrganizationByID(ctx, id)
	})
}

func (c *Repository) OrganizationByCode(ctx context.Context, code string) (models.Organization, error) {
	return cached(c, "org/code/"+code, func() (models.Organization, error) {
		return c.Repository.OrganizationByCode(ctx, code)
	})
}

func (c *Repository) OrganizationGame(ctx context.Context, organizationID, gameID int64) (models.OrganizationGame, error) {
	return cached(c, fmt.Sprintf("grant/%d/%d", organizationID, gameID), func() (models.OrganizationGame, error) {
		return c.Repository.OrganizationGame(ctx, organizationID, gameID)
	})
}

func (c *Repository) GameMissionByCode(ctx context.Context, gameVersionID int64, code string) (models.GameMission, error) {
	return cached(c, fmt.Sprintf("mission/%d/%s", gameVersionID, code), func() (models.GameMission, error) {
		return c.Repository.GameMissionByCode(ctx, gameVersionID, code)
	})
}

func (c *Repository) LearningGoalByCode(ctx context.Context, gameMissionID int64, code string) (models.LearningGoal, error) {
	return cached(c, fmt.Sprintf("goal/%d/%s", gameMissionID, code), func() (models.LearningGoal, error) {
		return c.Repository.LearningGoalByCode(ctx, gameMissionID, code)
	})
}

func (c *Repository) PlayerObjectiveByCode(ctx context.Context, learningGoalID int64, code string) (models.Objective, error) {
	return cached(c, fmt.Sprintf("pobj/%d/%s", learningGoalID, code), func() (models.Objective, error) {
		return c.Repository.PlayerObjectiveByCode(ctx, learningGoalID, code)
	})
}

func (c *Repository) GroupObjectiveByCode(ctx context.Context, learningGoalID int64, code string) (models.Objective, error) {
	return cached(c, fmt.Sprintf("gobj/%d/%s", learningGoalID, code), func() (models.Objective, error) {
		return c.Repository.GroupObjectiveByCode(ctx, learningGoalID, code)
	})
}

func (c *Repository) ScaleByType(ctx context.Context, gameID int64, scaleType string) (models.Scale, error) {
	return cached(c, fmt.Sprintf("scale/%d/%s", gameID, scaleType), func() (models.Scale, error) {
		return c.Repository.ScaleByType(ctx, gameID, scaleType)
	})
}
