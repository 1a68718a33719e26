package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repository lookups that match no row.
var ErrNotFound = errors.New("not found")

// Organization is a tenant that runs sessions of a game.
type Organization struct {
	ID   int64
	Code string
	Name string
}

// Game is a game title. TokenForced requires a game_token on every write.
type Game struct {
	ID          int64
	Code        string
	Name        string
	TokenForced bool
}

// GameVersion is one released version of a Game.
type GameVersion struct {
	ID     int64
	GameID int64
	Code   string
	Name   string
}

// OrganizationGame is the access grant between an organization and a game.
type OrganizationGame struct {
	ID                int64
	OrganizationID    int64
	GameID            int64
	AnonymousSessions bool
	TokenForced       bool
}

// AccessToken is a game token or an organization-game token.
// OwnerID points at the game or the grant, depending on the table.
type AccessToken struct {
	ID      int64
	OwnerID int64
	Value   string
	Writer  bool
}

// GameSession is one run of a game version by an organization.
type GameSession struct {
	ID             int64
	GameVersionID  int64
	OrganizationID int64
	Code           string
	Name           string
	Description    string
	SessionToken   string
	SessionStatus  string
	TokenForced    bool
	Valid          bool
	Archived       bool
	PlayDate       time.Time
}

// GameMission is a unit of gameplay within a version.
type GameMission struct {
	ID            int64
	GameVersionID int64
	Code          string
	Name          string
}

// Player is scoped to a game session.
type Player struct {
	ID            int64
	GameSessionID int64
	Name          string
	DisplayName   string
}

// PlayerAttempt is keyed by (player, mission, attempt number).
type PlayerAttempt struct {
	ID            int64
	PlayerID      int64
	GameMissionID int64
	AttemptNr     int
	Status        string
}

// Group is scoped to a game session.
type Group struct {
	ID            int64
	GameSessionID int64
	Name          string
}

// GroupAttempt is keyed by (group, mission, attempt number).
type GroupAttempt struct {
	ID            int64
	GroupID       int64
	GameMissionID int64
	AttemptNr     int
	Status        string
}

// GroupRole is keyed by (player, group, role name).
type GroupRole struct {
	ID       int64
	PlayerID int64
	GroupID  int64
	Name     string
}

// LearningGoal is a pedagogical target scoped to a mission.
type LearningGoal struct {
	ID            int64
	GameMissionID int64
	Code          string
}

// Objective is a player or group objective refining a learning goal.
type Objective struct {
	ID             int64
	LearningGoalID int64
	Code           string
}

// Scale is a scoring dimension scoped to a game.
type Scale struct {
	ID     int64
	GameID int64
	Type   string
}
