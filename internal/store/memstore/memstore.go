// Package memstore is an in-memory implementation of the processor
// repositories and the error-log writer. Lookups scan the tables, which is
// fine for tests and local runs with small reference data.
package memstore

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// Store holds every table in a concurrent map keyed by ID.
type Store struct {
	nextID atomic.Int64

	organizations  *xsync.Map[int64, models.Organization]
	games          *xsync.Map[int64, models.Game]
	versions       *xsync.Map[int64, models.GameVersion]
	grants         *xsync.Map[int64, models.OrganizationGame]
	gameTokens     *xsync.Map[int64, models.AccessToken]
	grantTokens    *xsync.Map[int64, models.AccessToken]
	sessions       *xsync.Map[int64, models.GameSession]
	missions       *xsync.Map[int64, models.GameMission]
	goals          *xsync.Map[int64, models.LearningGoal]
	playerObjs     *xsync.Map[int64, models.Objective]
	groupObjs      *xsync.Map[int64, models.Objective]
	scales         *xsync.Map[int64, models.Scale]
	players        *xsync.Map[int64, models.Player]
	playerAttempts *xsync.Map[int64, models.PlayerAttempt]
	groups         *xsync.Map[int64, models.Group]
	groupAttempts  *xsync.Map[int64, models.GroupAttempt]
	groupRoles     *xsync.Map[int64, models.GroupRole]
	records        *xsync.Map[int64, models.Record]
	errors         *xsync.Map[int64, models.ErrorEntry]
}

// New returns an empty store.
func New() *Store {
	return &Store{
		organizations:  xsync.NewMap[int64, models.Organization](),
		games:          xsync.NewMap[int64, models.Game](),
		versions:       xsync.NewMap[int64, models.GameVersion](),
		grants:         xsync.NewMap[int64, models.OrganizationGame](),
		gameTokens:     xsync.NewMap[int64, models.AccessToken](),
		grantTokens:    xsync.NewMap[int64, models.AccessToken](),
		sessions:       xsync.NewMap[int64, models.GameSession](),
		missions:       xsync.NewMap[int64, models.GameMission](),
		goals:          xsync.NewMap[int64, models.LearningGoal](),
		playerObjs:     xsync.NewMap[int64, models.Objective](),
		groupObjs:      xsync.NewMap[int64, models.Objective](),
		scales:         xsync.NewMap[int64, models.Scale](),
		players:        xsync.NewMap[int64, models.Player](),
		playerAttempts: xsync.NewMap[int64, models.PlayerAttempt](),
		groups:         xsync.NewMap[int64, models.Group](),
		groupAttempts:  xsync.NewMap[int64, models.GroupAttempt](),
		groupRoles:     xsync.NewMap[int64, models.GroupRole](),
		records:        xsync.NewMap[int64, models.Record](),
		errors:         xsync.NewMap[int64, models.ErrorEntry](),
	}
}

func (s *Store) id() int64 { return s.nextID.Add(1) }

// find returns the first row, in ID order, matching pred.
func find[T any](m *xsync.Map[int64, T], pred func(T) bool) (T, error) {
	var (
		best   T
		bestID int64
		ok     bool
	)
	m.Range(func(id int64, v T) bool {
		if pred(v) && (!ok || id < bestID) {
			best, bestID, ok = v, id, true
		}
		return true
	})
	if !ok {
		return best, models.ErrNotFound
	}
	return best, nil
}

func byID[T any](m *xsync.Map[int64, T], id int64) (T, error) {
	v, ok := m.Load(id)
	if !ok {
		return v, models.ErrNotFound
	}
	return v, nil
}

func sortedValues[T any](m *xsync.Map[int64, T]) []T {
	ids := make([]int64, 0, m.Size())
	m.Range(func(id int64, _ T) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.Load(id); ok {
			out = append(out, v)
		}
	}
	return out
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}
