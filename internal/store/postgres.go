// Package store is the Postgres persistence layer. PostgresStore implements
// every repository the processor needs plus the error-log writer.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// PostgresStore is the durable persistence layer for reference data,
// lazily created entities, output records and the error log.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if the DB is unreachable.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// notFound maps a pgx miss onto models.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Reference data.

func scanGame(row pgx.Row) (models.Game, error) {
	var g models.Game
	err := row.Scan(&g.ID, &g.Code, &g.Name, &g.TokenForced)
	return g, notFound(err)
}

func (p *PostgresStore) GameByID(ctx context.Context, id int64) (models.Game, error) {
	return scanGame(p.pool.QueryRow(ctx,
		`SELECT id, code, name, token_forced FROM game WHERE id=$1`, id))
}

func (p *PostgresStore) GameByCode(ctx context.Context, code string) (models.Game, error) {
	return scanGame(p.pool.QueryRow(ctx,
		`SELECT id, code, name, token_forced FROM game WHERE code=$1 ORDER BY id LIMIT 1`, code))
}

func scanVersion(row pgx.Row) (models.GameVersion, error) {
	var v models.GameVersion
	err := row.Scan(&v.ID, &v.GameID, &v.Code, &v.Name)
	return v, notFound(err)
}

func (p *PostgresStore) GameVersionByID(ctx context.Context, id int64) (models.GameVersion, error) {
	return scanVersion(p.pool.QueryRow(ctx,
		`SELECT id, game_id, code, name FROM game_version WHERE id=$1`, id))
}

func (p *PostgresStore) GameVersionByCode(ctx context.Context, gameID int64, code string) (models.GameVersion, error) {
	return scanVersion(p.pool.QueryRow(ctx, `
		SELECT id, game_id, code, name FROM game_version
		WHERE game_id=$1 AND code=$2
		ORDER BY id LIMIT 1
	`, gameID, code))
}

func scanOrganization(row pgx.Row) (models.Organization, error) {
	var o models.Organization
	err := row.Scan(&o.ID, &o.Code, &o.Name)
	return o, notFound(err)
}

func (p *PostgresStore) OrganizationByID(ctx context.Context, id int64) (models.Organization, error) {
	return scanOrganization(p.pool.QueryRow(ctx,
		`SELECT id, code, name FROM organization WHERE id=$1`, id))
}

func (p *PostgresStore) OrganizationByCode(ctx context.Context, code string) (models.Organization, error) {
	return scanOrganization(p.pool.QueryRow(ctx,
		`SELECT id, code, name FROM organization WHERE code=$1 ORDER BY id LIMIT 1`, code))
}

func (p *PostgresStore) OrganizationGame(ctx context.Context, organizationID, gameID int64) (models.OrganizationGame, error) {
	var og models.OrganizationGame
	err := p.pool.QueryRow(ctx, `
		SELECT id, organization_id, game_id, anonymous_sessions, token_forced
		FROM organization_game
		WHERE organization_id=$1 AND game_id=$2
		ORDER BY id LIMIT 1
	`, organizationID, gameID).Scan(&og.ID, &og.OrganizationID, &og.GameID, &og.AnonymousSessions, &og.TokenForced)
	return og, notFound(err)
}

func (p *PostgresStore) GameMissionByCode(ctx context.Context, gameVersionID int64, code string) (models.GameMission, error) {
	var m models.GameMission
	err := p.pool.QueryRow(ctx, `
		SELECT id, game_version_id, code, name FROM game_mission
		WHERE game_version_id=$1 AND code=$2
		ORDER BY id LIMIT 1
	`, gameVersionID, code).Scan(&m.ID, &m.GameVersionID, &m.Code, &m.Name)
	return m, notFound(err)
}

func (p *PostgresStore) LearningGoalByCode(ctx context.Context, gameMissionID int64, code string) (models.LearningGoal, error) {
	var g models.LearningGoal
	err := p.pool.QueryRow(ctx, `
		SELECT id, game_mission_id, code FROM learning_goal
		WHERE game_mission_id=$1 AND code=$2
		ORDER BY id LIMIT 1
	`, gameMissionID, code).Scan(&g.ID, &g.GameMissionID, &g.Code)
	return g, notFound(err)
}

func (p *PostgresStore) objective(ctx context.Context, table string, learningGoalID int64, code string) (models.Objective, error) {
	var o models.Objective
	err := p.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, learning_goal_id, code FROM %s
		WHERE learning_goal_id=$1 AND code=$2
		ORDER BY id LIMIT 1
	`, table), learningGoalID, code).Scan(&o.ID, &o.LearningGoalID, &o.Code)
	return o, notFound(err)
}

func (p *PostgresStore) PlayerObjectiveByCode(ctx context.Context, learningGoalID int64, code string) (models.Objective, error) {
	return p.objective(ctx, "player_objective", learningGoalID, code)
}

func (p *PostgresStore) GroupObjectiveByCode(ctx context.Context, learningGoalID int64, code string) (models.Objective, error) {
	return p.objective(ctx, "group_objective", learningGoalID, code)
}

func (p *PostgresStore) ScaleByType(ctx context.Context, gameID int64, scaleType string) (models.Scale, error) {
	var s models.Scale
	err := p.pool.QueryRow(ctx, `
		SELECT id, game_id, type FROM scale
		WHERE game_id=$1 AND type=$2
		ORDER BY id LIMIT 1
	`, gameID, scaleType).Scan(&s.ID, &s.GameID, &s.Type)
	return s, notFound(err)
}

// Tokens.

func (p *PostgresStore) GameToken(ctx context.Context, gameID int64, value string) (models.AccessToken, error) {
	var t models.AccessToken
	err := p.pool.QueryRow(ctx, `
		SELECT id, game_id, value, writer FROM game_token
		WHERE game_id=$1 AND value=$2
	`, gameID, value).Scan(&t.ID, &t.OwnerID, &t.Value, &t.Writer)
	return t, notFound(err)
}

func (p *PostgresStore) OrganizationGameToken(ctx context.Context, organizationGameID int64, value string) (models.AccessToken, error) {
	var t models.AccessToken
	err := p.pool.QueryRow(ctx, `
		SELECT id, organization_game_id, value, writer FROM organization_game_token
		WHERE organization_game_id=$1 AND value=$2
	`, organizationGameID, value).Scan(&t.ID, &t.OwnerID, &t.Value, &t.Writer)
	return t, notFound(err)
}

// Sessions.

const sessionColumns = `id, game_version_id, organization_id, code, name, description,
	session_token, session_status, token_forced, valid, archived, play_date`

func scanSession(row pgx.Row) (models.GameSession, error) {
	var (
		s        models.GameSession
		playDate *time.Time
	)
	err := row.Scan(&s.ID, &s.GameVersionID, &s.OrganizationID, &s.Code, &s.Name, &s.Description,
		&s.SessionToken, &s.SessionStatus, &s.TokenForced, &s.Valid, &s.Archived, &playDate)
	if playDate != nil {
		s.PlayDate = *playDate
	}
	return s, notFound(err)
}

func (p *PostgresStore) SessionByToken(ctx context.Context, token string) (models.GameSession, error) {
	return scanSession(p.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM game_session WHERE session_token=$1 ORDER BY id LIMIT 1`, token))
}

func (p *PostgresStore) SessionByCode(ctx context.Context, code string, gameVersionID, organizationID int64) (models.GameSession, error) {
	return scanSession(p.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_session
		WHERE code=$1 AND game_version_id=$2 AND organization_id=$3
		ORDER BY id LIMIT 1`, code, gameVersionID, organizationID))
}

func (p *PostgresStore) CreateSession(ctx context.Context, s *models.GameSession) error {
	var playDate *time.Time
	if !s.PlayDate.IsZero() {
		playDate = &s.PlayDate
	}
	return p.pool.QueryRow(ctx, `
		INSERT INTO game_session(game_version_id, organization_id, code, name, description,
			session_token, session_status, token_forced, valid, archived, play_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`, s.GameVersionID, s.OrganizationID, s.Code, s.Name, s.Description,
		s.SessionToken, s.SessionStatus, s.TokenForced, s.Valid, s.Archived, playDate).Scan(&s.ID)
}

// Participants.

func (p *PostgresStore) PlayerByName(ctx context.Context, gameSessionID int64, name string) (models.Player, error) {
	var pl models.Player
	err := p.pool.QueryRow(ctx, `
		SELECT id, game_session_id, name, display_name FROM player
		WHERE game_session_id=$1 AND name=$2
		ORDER BY id LIMIT 1
	`, gameSessionID, name).Scan(&pl.ID, &pl.GameSessionID, &pl.Name, &pl.DisplayName)
	return pl, notFound(err)
}

func (p *PostgresStore) CreatePlayer(ctx context.Context, pl *models.Player) error {
	return p.pool.QueryRow(ctx, `
		INSERT INTO player(game_session_id, name, display_name) VALUES ($1,$2,$3) RETURNING id
	`, pl.GameSessionID, pl.Name, pl.DisplayName).Scan(&pl.ID)
}

func (p *PostgresStore) PlayerAttempt(ctx context.Context, playerID, gameMissionID int64, attemptNr int) (models.PlayerAttempt, error) {
	var a models.PlayerAttempt
	err := p.pool.QueryRow(ctx, `
		SELECT id, player_id, game_mission_id, attempt_nr, status FROM player_attempt
		WHERE player_id=$1 AND game_mission_id=$2 AND attempt_nr=$3
		ORDER BY id LIMIT 1
	`, playerID, gameMissionID, attemptNr).Scan(&a.ID, &a.PlayerID, &a.GameMissionID, &a.AttemptNr, &a.Status)
	return a, notFound(err)
}

func (p *PostgresStore) CreatePlayerAttempt(ctx context.Context, a *models.PlayerAttempt) error {
	return p.pool.QueryRow(ctx, `
		INSERT INTO player_attempt(player_id, game_mission_id, attempt_nr, status)
		VALUES ($1,$2,$3,$4) RETURNING id
	`, a.PlayerID, a.GameMissionID, a.AttemptNr, a.Status).Scan(&a.ID)
}

func (p *PostgresStore) GroupByName(ctx context.Context, gameSessionID int64, name string) (models.Group, error) {
	var g models.Group
	err := p.pool.QueryRow(ctx, `
		SELECT id, game_session_id, name FROM "group"
		WHERE game_session_id=$1 AND name=$2
		ORDER BY id LIMIT 1
	`, gameSessionID, name).Scan(&g.ID, &g.GameSessionID, &g.Name)
	return g, notFound(err)
}

func (p *PostgresStore) CreateGroup(ctx context.Context, g *models.Group) error {
	return p.pool.QueryRow(ctx, `
		INSERT INTO "group"(game_session_id, name) VALUES ($1,$2) RETURNING id
	`, g.GameSessionID, g.Name).Scan(&g.ID)
}

func (p *PostgresStore) GroupRole(ctx context.Context, playerID, groupID int64, name string) (models.GroupRole, error) {
	var r models.GroupRole
	err := p.pool.QueryRow(ctx, `
		SELECT id, player_id, group_id, name FROM group_role
		WHERE player_id=$1 AND group_id=$2 AND name=$3
		ORDER BY id LIMIT 1
	`, playerID, groupID, name).Scan(&r.ID, &r.PlayerID, &r.GroupID, &r.Name)
	return r, notFound(err)
}

func (p *PostgresStore) CreateGroupRole(ctx context.Context, r *models.GroupRole) error {
	return p.pool.QueryRow(ctx, `
		INSERT INTO group_role(player_id, group_id, name) VALUES ($1,$2,$3) RETURNING id
	`, r.PlayerID, r.GroupID, r.Name).Scan(&r.ID)
}

func (p *PostgresStore) GroupAttempt(ctx context.Context, groupID, gameMissionID int64, attemptNr int) (models.GroupAttempt, error) {
	var a models.GroupAttempt
	err := p.pool.QueryRow(ctx, `
		SELECT id, group_id, game_mission_id, attempt_nr, status FROM group_attempt
		WHERE group_id=$1 AND game_mission_id=$2 AND attempt_nr=$3
		ORDER BY id LIMIT 1
	`, groupID, gameMissionID, attemptNr).Scan(&a.ID, &a.GroupID, &a.GameMissionID, &a.AttemptNr, &a.Status)
	return a, notFound(err)
}

func (p *PostgresStore) CreateGroupAttempt(ctx context.Context, a *models.GroupAttempt) error {
	return p.pool.QueryRow(ctx, `
		INSERT INTO group_attempt(group_id, game_mission_id, attempt_nr, status)
		VALUES ($1,$2,$3,$4) RETURNING id
	`, a.GroupID, a.GameMissionID, a.AttemptNr, a.Status).Scan(&a.ID)
}

// Output.

// InsertRecord appends one output record and returns its ID.
func (p *PostgresStore) InsertRecord(ctx context.Context, rec models.Record) (int64, error) {
	var id int64
	var row pgx.Row

	switch r := rec.(type) {
	case models.MissionEvent:
		e := r.EventFields
		row = p.pool.QueryRow(ctx, `
			INSERT INTO mission_event(game_session_id, game_mission_id, type, key, value, timestamp,
				status, round, game_time, grouping_code, facilitator_initiated)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id
		`, r.GameSessionID, r.GameMissionID, e.Type, e.Key, e.Value, e.Timestamp,
			e.Status, e.Round, e.GameTime, e.GroupingCode, r.FacilitatorInitiated)
	case models.PlayerEvent:
		e := r.EventFields
		row = p.pool.QueryRow(ctx, `
			INSERT INTO player_event(player_attempt_id, type, key, value, timestamp,
				status, round, game_time, grouping_code, player_initiated)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id
		`, r.PlayerAttemptID, e.Type, e.Key, e.Value, e.Timestamp,
			e.Status, e.Round, e.GameTime, e.GroupingCode, r.PlayerInitiated)
	case models.GroupEvent:
		e := r.EventFields
		row = p.pool.QueryRow(ctx, `
			INSERT INTO group_event(group_attempt_id, type, key, value, timestamp,
				status, round, game_time, grouping_code, group_initiated)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id
		`, r.GroupAttemptID, e.Type, e.Key, e.Value, e.Timestamp,
			e.Status, e.Round, e.GameTime, e.GroupingCode, r.GroupInitiated)
	case models.PlayerScore:
		s := r.ScoreFields
		row = p.pool.QueryRow(ctx, `
			INSERT INTO player_score(player_attempt_id, player_objective_id, scale_id, score_type,
				delta, new_score_number, new_score_string, timestamp, final_score,
				status, round, game_time, grouping_code)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING id
		`, r.PlayerAttemptID, r.PlayerObjectiveID, s.ScaleID, s.ScoreType,
			s.Delta, s.NewScoreNumber, s.NewScoreString, s.Timestamp, s.FinalScore,
			s.Status, s.Round, s.GameTime, s.GroupingCode)
	case models.GroupScore:
		s := r.ScoreFields
		row = p.pool.QueryRow(ctx, `
			INSERT INTO group_score(group_attempt_id, group_objective_id, scale_id, score_type,
				delta, new_score_number, new_score_string, timestamp, final_score,
				status, round, game_time, grouping_code)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING id
		`, r.GroupAttemptID, r.GroupObjectiveID, s.ScaleID, s.ScoreType,
			s.Delta, s.NewScoreNumber, s.NewScoreString, s.Timestamp, s.FinalScore,
			s.Status, s.Round, s.GameTime, s.GroupingCode)
	default:
		return 0, fmt.Errorf("unsupported record type %T", rec)
	}

	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// InsertErrorEntry persists one error-log entry. Empty optional fields are NULL.
func (p *PostgresStore) InsertErrorEntry(ctx context.Context, e models.ErrorEntry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO error_log(timestamp, error_type, record_stored, message, raw_payload,
			data_type, session_token, game_session_code, game_version_code, organization_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, ts, string(e.Type), e.RecordStored, e.Message, e.RawPayload,
		nullString(e.DataType), nullString(e.SessionToken), nullString(e.GameSessionCode),
		nullString(e.GameVersionCode), nullString(e.OrganizationCode))
	return err
}
