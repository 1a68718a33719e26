package models

import "time"

// DataKind is the value of the "data" field naming the record kind.
type DataKind string

const (
	KindMissionEvent DataKind = "mission_event"
	KindPlayerEvent  DataKind = "player_event"
	KindGroupEvent   DataKind = "group_event"
	KindPlayerScore  DataKind = "player_score"
	KindGroupScore   DataKind = "group_score"
)

// ParseDataKind maps a raw "data" value onto a known kind.
func ParseDataKind(s string) (DataKind, bool) {
	switch k := DataKind(s); k {
	case KindMissionEvent, KindPlayerEvent, KindGroupEvent, KindPlayerScore, KindGroupScore:
		return k, true
	}
	return "", false
}

// Record is one of the five append-only output records.
type Record interface {
	Kind() DataKind
}

// EventFields are shared by the three event records.
// Nil pointers are stored as NULL.
type EventFields struct {
	Type         string
	Key          string
	Value        string
	Timestamp    time.Time
	Status       *string
	Round        *string
	GameTime     *string
	GroupingCode *string
}

// MissionEvent is an event about the mission as a whole.
type MissionEvent struct {
	ID            int64
	GameSessionID int64
	GameMissionID int64
	EventFields
	FacilitatorInitiated bool
}

func (MissionEvent) Kind() DataKind { return KindMissionEvent }

// PlayerEvent is an event attached to a player attempt.
type PlayerEvent struct {
	ID              int64
	PlayerAttemptID int64
	EventFields
	PlayerInitiated bool
}

func (PlayerEvent) Kind() DataKind { return KindPlayerEvent }

// GroupEvent is an event attached to a group attempt.
type GroupEvent struct {
	ID             int64
	GroupAttemptID int64
	EventFields
	GroupInitiated bool
}

func (GroupEvent) Kind() DataKind { return KindGroupEvent }

// ScoreFields are shared by the two score records.
type ScoreFields struct {
	ScoreType      string
	ScaleID        *int64
	Delta          *float64
	NewScoreNumber *float64
	NewScoreString *string
	Timestamp      time.Time
	FinalScore     bool
	Status         *string
	Round          *string
	GameTime       *string
	GroupingCode   *string
}

// PlayerScore is a score change for a player attempt.
type PlayerScore struct {
	ID                int64
	PlayerAttemptID   int64
	PlayerObjectiveID *int64
	ScoreFields
}

func (PlayerScore) Kind() DataKind { return KindPlayerScore }

// GroupScore is a score change for a group attempt.
type GroupScore struct {
	ID               int64
	GroupAttemptID   int64
	GroupObjectiveID *int64
	ScoreFields
}

func (GroupScore) Kind() DataKind { return KindGroupScore }
