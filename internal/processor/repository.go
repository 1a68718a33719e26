package processor

import (
	"context"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// Lookups return models.ErrNotFound when no row matches. Create methods set
// the generated ID on the passed entity.

// ReferenceReader reads the mostly static reference data that is maintained
// outside this service.
type ReferenceReader interface {
	GameByID(ctx context.Context, id int64) (models.Game, error)
	GameByCode(ctx context.Context, code string) (models.Game, error)
	GameVersionByID(ctx context.Context, id int64) (models.GameVersion, error)
	GameVersionByCode(ctx context.Context, gameID int64, code string) (models.GameVersion, error)
	OrganizationByID(ctx context.Context, id int64) (models.Organization, error)
	OrganizationByCode(ctx context.Context, code string) (models.Organization, error)
	OrganizationGame(ctx context.Context, organizationID, gameID int64) (models.OrganizationGame, error)
	GameMissionByCode(ctx context.Context, gameVersionID int64, code string) (models.GameMission, error)
	LearningGoalByCode(ctx context.Context, gameMissionID int64, code string) (models.LearningGoal, error)
	PlayerObjectiveByCode(ctx context.Context, learningGoalID int64, code string) (models.Objective, error)
	GroupObjectiveByCode(ctx context.Context, learningGoalID int64, code string) (models.Objective, error)
	ScaleByType(ctx context.Context, gameID int64, scaleType string) (models.Scale, error)
}

// TokenReader reads write/read tokens. Tokens are never cached.
type TokenReader interface {
	GameToken(ctx context.Context, gameID int64, value string) (models.AccessToken, error)
	OrganizationGameToken(ctx context.Context, organizationGameID int64, value string) (models.AccessToken, error)
}

// SessionRepository finds and lazily creates game sessions.
type SessionRepository interface {
	SessionByToken(ctx context.Context, token string) (models.GameSession, error)
	SessionByCode(ctx context.Context, code string, gameVersionID, organizationID int64) (models.GameSession, error)
	CreateSession(ctx context.Context, s *models.GameSession) error
}

// ParticipantRepository finds and lazily creates players, groups, roles and attempts.
type ParticipantRepository interface {
	PlayerByName(ctx context.Context, gameSessionID int64, name string) (models.Player, error)
	CreatePlayer(ctx context.Context, p *models.Player) error
	PlayerAttempt(ctx context.Context, playerID, gameMissionID int64, attemptNr int) (models.PlayerAttempt, error)
	CreatePlayerAttempt(ctx context.Context, a *models.PlayerAttempt) error
	GroupByName(ctx context.Context, gameSessionID int64, name string) (models.Group, error)
	CreateGroup(ctx context.Context, g *models.Group) error
	GroupRole(ctx context.Context, playerID, groupID int64, name string) (models.GroupRole, error)
	CreateGroupRole(ctx context.Context, r *models.GroupRole) error
	GroupAttempt(ctx context.Context, groupID, gameMissionID int64, attemptNr int) (models.GroupAttempt, error)
	CreateGroupAttempt(ctx context.Context, a *models.GroupAttempt) error
}

// RecordWriter appends output records and returns the generated ID.
type RecordWriter interface {
	InsertRecord(ctx context.Context, rec models.Record) (int64, error)
}

// Repository is everything the processor needs from storage.
type Repository interface {
	ReferenceReader
	TokenReader
	SessionRepository
	ParticipantRepository
	RecordWriter
}
