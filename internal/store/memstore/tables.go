package memstore

import (
	"context"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// Reference data seeding. Each Add assigns and returns the new ID.

func (s *Store) AddOrganization(o models.Organization) models.Organization {
	o.ID = s.id()
	s.organizations.Store(o.ID, o)
	return o
}

func (s *Store) AddGame(g models.Game) models.Game {
	g.ID = s.id()
	s.games.Store(g.ID, g)
	return g
}

func (s *Store) AddGameVersion(v models.GameVersion) models.GameVersion {
	v.ID = s.id()
	s.versions.Store(v.ID, v)
	return v
}

func (s *Store) AddOrganizationGame(og models.OrganizationGame) models.OrganizationGame {
	og.ID = s.id()
	s.grants.Store(og.ID, og)
	return og
}

func (s *Store) AddGameToken(t models.AccessToken) models.AccessToken {
	t.ID = s.id()
	s.gameTokens.Store(t.ID, t)
	return t
}

func (s *Store) AddOrganizationGameToken(t models.AccessToken) models.AccessToken {
	t.ID = s.id()
	s.grantTokens.Store(t.ID, t)
	return t
}

func (s *Store) AddGameMission(m models.GameMission) models.GameMission {
	m.ID = s.id()
	s.missions.Store(m.ID, m)
	return m
}

func (s *Store) AddLearningGoal(g models.LearningGoal) models.LearningGoal {
	g.ID = s.id()
	s.goals.Store(g.ID, g)
	return g
}

func (s *Store) AddPlayerObjective(o models.Objective) models.Objective {
	o.ID = s.id()
	s.playerObjs.Store(o.ID, o)
	return o
}

func (s *Store) AddGroupObjective(o models.Objective) models.Objective {
	o.ID = s.id()
	s.groupObjs.Store(o.ID, o)
	return o
}

func (s *Store) AddScale(sc models.Scale) models.Scale {
	sc.ID = s.id()
	s.scales.Store(sc.ID, sc)
	return sc
}

// AddSession registers a pre-issued session.
func (s *Store) AddSession(gs models.GameSession) models.GameSession {
	gs.ID = s.id()
	s.sessions.Store(gs.ID, gs)
	return gs
}

// Reference reads.

func (s *Store) GameByID(_ context.Context, id int64) (models.Game, error) {
	return byID(s.games, id)
}

func (s *Store) GameByCode(_ context.Context, code string) (models.Game, error) {
	return find(s.games, func(g models.Game) bool { return g.Code == code })
}

func (s *Store) GameVersionByID(_ context.Context, id int64) (models.GameVersion, error) {
	return byID(s.versions, id)
}

func (s *Store) GameVersionByCode(_ context.Context, gameID int64, code string) (models.GameVersion, error) {
	return find(s.versions, func(v models.GameVersion) bool { return v.GameID == gameID && v.Code == code })
}

func (s *Store) OrganizationByID(_ context.Context, id int64) (models.Organization, error) {
	return byID(s.organizations, id)
}

func (s *Store) OrganizationByCode(_ context.Context, code string) (models.Organization, error) {
	return find(s.organizations, func(o models.Organization) bool { return o.Code == code })
}

func (s *Store) OrganizationGame(_ context.Context, organizationID, gameID int64) (models.OrganizationGame, error) {
	return find(s.grants, func(og models.OrganizationGame) bool {
		return og.OrganizationID == organizationID && og.GameID == gameID
	})
}

func (s *Store) GameMissionByCode(_ context.Context, gameVersionID int64, code string) (models.GameMission, error) {
	return find(s.missions, func(m models.GameMission) bool { return m.GameVersionID == gameVersionID && m.Code == code })
}

func (s *Store) LearningGoalByCode(_ context.Context, gameMissionID int64, code string) (models.LearningGoal, error) {
	return find(s.goals, func(g models.LearningGoal) bool { return g.GameMissionID == gameMissionID && g.Code == code })
}

func (s *Store) PlayerObjectiveByCode(_ context.Context, learningGoalID int64, code string) (models.Objective, error) {
	return find(s.playerObjs, func(o models.Objective) bool { return o.LearningGoalID == learningGoalID && o.Code == code })
}

func (s *Store) GroupObjectiveByCode(_ context.Context, learningGoalID int64, code string) (models.Objective, error) {
	return find(s.groupObjs, func(o models.Objective) bool { return o.LearningGoalID == learningGoalID && o.Code == code })
}

func (s *Store) ScaleByType(_ context.Context, gameID int64, scaleType string) (models.Scale, error) {
	return find(s.scales, func(sc models.Scale) bool { return sc.GameID == gameID && sc.Type == scaleType })
}

// Tokens.

func (s *Store) GameToken(_ context.Context, gameID int64, value string) (models.AccessToken, error) {
	return find(s.gameTokens, func(t models.AccessToken) bool { return t.OwnerID == gameID && t.Value == value })
}

func (s *Store) OrganizationGameToken(_ context.Context, organizationGameID int64, value string) (models.AccessToken, error) {
	return find(s.grantTokens, func(t models.AccessToken) bool { return t.OwnerID == organizationGameID && t.Value == value })
}

// Sessions.

func (s *Store) SessionByToken(_ context.Context, token string) (models.GameSession, error) {
	return find(s.sessions, func(gs models.GameSession) bool { return gs.SessionToken == token })
}

func (s *Store) SessionByCode(_ context.Context, code string, gameVersionID, organizationID int64) (models.GameSession, error) {
	return find(s.sessions, func(gs models.GameSession) bool {
		return gs.Code == code && gs.GameVersionID == gameVersionID && gs.OrganizationID == organizationID
	})
}

func (s *Store) CreateSession(_ context.Context, gs *models.GameSession) error {
	gs.ID = s.id()
	s.sessions.Store(gs.ID, *gs)
	return nil
}

// Sessions returns all sessions in creation order.
func (s *Store) Sessions() []models.GameSession { return sortedValues(s.sessions) }

// Participants.

func (s *Store) PlayerByName(_ context.Context, gameSessionID int64, name string) (models.Player, error) {
	return find(s.players, func(p models.Player) bool { return p.GameSessionID == gameSessionID && p.Name == name })
}

func (s *Store) CreatePlayer(_ context.Context, p *models.Player) error {
	p.ID = s.id()
	s.players.Store(p.ID, *p)
	return nil
}

func (s *Store) PlayerAttempt(_ context.Context, playerID, gameMissionID int64, attemptNr int) (models.PlayerAttempt, error) {
	return find(s.playerAttempts, func(a models.PlayerAttempt) bool {
		return a.PlayerID == playerID && a.GameMissionID == gameMissionID && a.AttemptNr == attemptNr
	})
}

func (s *Store) CreatePlayerAttempt(_ context.Context, a *models.PlayerAttempt) error {
	a.ID = s.id()
	s.playerAttempts.Store(a.ID, *a)
	return nil
}

func (s *Store) GroupByName(_ context.Context, gameSessionID int64, name string) (models.Group, error) {
	return find(s.groups, func(g models.Group) bool { return g.GameSessionID == gameSessionID && g.Name == name })
}

func (s *Store) CreateGroup(_ context.Context, g *models.Group) error {
	g.ID = s.id()
	s.groups.Store(g.ID, *g)
	return nil
}

func (s *Store) GroupRole(_ context.Context, playerID, groupID int64, name string) (models.GroupRole, error) {
	return find(s.groupRoles, func(r models.GroupRole) bool {
		return r.PlayerID == playerID && r.GroupID == groupID && r.Name == name
	})
}

func (s *Store) CreateGroupRole(_ context.Context, r *models.GroupRole) error {
	r.ID = s.id()
	s.groupRoles.Store(r.ID, *r)
	return nil
}

func (s *Store) GroupAttempt(_ context.Context, groupID, gameMissionID int64, attemptNr int) (models.GroupAttempt, error) {
	return find(s.groupAttempts, func(a models.GroupAttempt) bool {
		return a.GroupID == groupID && a.GameMissionID == gameMissionID && a.AttemptNr == attemptNr
	})
}

func (s *Store) CreateGroupAttempt(_ context.Context, a *models.GroupAttempt) error {
	a.ID = s.id()
	s.groupAttempts.Store(a.ID, *a)
	return nil
}

// Players, PlayerAttempts, Groups, GroupAttempts and GroupRoles return rows in creation order.
func (s *Store) Players() []models.Player               { return sortedValues(s.players) }
func (s *Store) PlayerAttempts() []models.PlayerAttempt { return sortedValues(s.playerAttempts) }
func (s *Store) Groups() []models.Group                 { return sortedValues(s.groups) }
func (s *Store) GroupAttempts() []models.GroupAttempt   { return sortedValues(s.groupAttempts) }
func (s *Store) GroupRoles() []models.GroupRole         { return sortedValues(s.groupRoles) }

// Output.

func (s *Store) InsertRecord(_ context.Context, rec models.Record) (int64, error) {
	id := s.id()
	s.records.Store(id, rec)
	return id, nil
}

func (s *Store) InsertErrorEntry(_ context.Context, e models.ErrorEntry) error {
	e.ID = s.id()
	s.errors.Store(e.ID, e)
	return nil
}

// Records returns all written records in insertion order.
func (s *Store) Records() []models.Record { return sortedValues(s.records) }

// ErrorEntries returns all error-log entries in insertion order.
func (s *Store) ErrorEntries() []models.ErrorEntry { return sortedValues(s.errors) }
