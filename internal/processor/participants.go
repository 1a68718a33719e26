package processor

import (
	"errors"
	"fmt"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

const (
	displayNameMax  = 45
	defaultRoleName = "MEMBER"
)

// actor selects which attempt a record hangs off.
type actor int

const (
	actorMission actor = iota
	actorPlayer
	actorGroup
)

func actorFor(kind models.DataKind) actor {
	switch kind {
	case models.KindPlayerEvent, models.KindPlayerScore:
		return actorPlayer
	case models.KindGroupEvent, models.KindGroupScore:
		return actorGroup
	}
	return actorMission
}

// resolveAttempt finds or creates the attempt context for kind.
func (r *run) resolveAttempt(kind models.DataKind) error {
	switch actorFor(kind) {
	case actorPlayer:
		return r.resolvePlayer()
	case actorGroup:
		return r.resolveGroup()
	}
	return nil
}

// found reports whether err is a miss, and passes through anything else.
func found(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (r *run) resolvePlayer() error {
	ctx, repo := r.ctx, r.p.repo

	name, err := r.require("player_name")
	if err != nil {
		return err
	}
	p, err := repo.PlayerByName(ctx, r.session.ID, name)
	ok, err := found(err)
	if err != nil {
		return fmt.Errorf("player %s: %w", name, err)
	}
	if !ok {
		p = models.Player{
			GameSessionID: r.session.ID,
			Name:          name,
			DisplayName:   soft(r, String(r.req, "display_name", false, truncate(name, displayNameMax))),
		}
		if err := repo.CreatePlayer(ctx, &p); err != nil {
			return fmt.Errorf("create player %s: %w", name, err)
		}
	}
	r.player = p

	nr := soft(r, Int(r.req, "player_attempt_nr", false, 1))
	a, err := repo.PlayerAttempt(ctx, p.ID, r.mission.ID, nr)
	ok, err = found(err)
	if err != nil {
		return fmt.Errorf("player attempt %d for %s: %w", nr, name, err)
	}
	if !ok {
		a = models.PlayerAttempt{
			PlayerID:      p.ID,
			GameMissionID: r.mission.ID,
			AttemptNr:     nr,
			Status:        soft(r, String(r.req, "player_attempt_status", false, "")),
		}
		if err := repo.CreatePlayerAttempt(ctx, &a); err != nil {
			return fmt.Errorf("create player attempt %d for %s: %w", nr, name, err)
		}
	}
	r.playerAttempt = a

	groupName, ok := r.req.Get("group_name")
	if !ok {
		return nil
	}
	if err := r.findOrCreateGroup(groupName); err != nil {
		return err
	}
	role := soft(r, String(r.req, "group_role", false, defaultRoleName))
	gr, err := repo.GroupRole(ctx, p.ID, r.group.ID, role)
	ok, err = found(err)
	if err != nil {
		return fmt.Errorf("group role %s for %s: %w", role, name, err)
	}
	if !ok {
		gr = models.GroupRole{PlayerID: p.ID, GroupID: r.group.ID, Name: role}
		if err := repo.CreateGroupRole(ctx, &gr); err != nil {
			return fmt.Errorf("create group role %s for %s: %w", role, name, err)
		}
	}
	r.groupRole = gr
	return nil
}

func (r *run) resolveGroup() error {
	name, err := r.require("group_name")
	if err != nil {
		return err
	}
	if err := r.findOrCreateGroup(name); err != nil {
		return err
	}

	ctx, repo := r.ctx, r.p.repo
	nr := soft(r, Int(r.req, "group_attempt_nr", false, 1))
	a, err := repo.GroupAttempt(ctx, r.group.ID, r.mission.ID, nr)
	ok, err := found(err)
	if err != nil {
		return fmt.Errorf("group attempt %d for %s: %w", nr, name, err)
	}
	if !ok {
		a = models.GroupAttempt{
			GroupID:       r.group.ID,
			GameMissionID: r.mission.ID,
			AttemptNr:     nr,
			Status:        soft(r, String(r.req, "group_attempt_status", false, "")),
		}
		if err := repo.CreateGroupAttempt(ctx, &a); err != nil {
			return fmt.Errorf("create group attempt %d for %s: %w", nr, name, err)
		}
	}
	r.groupAttempt = a
	return nil
}

func (r *run) findOrCreateGroup(name string) error {
	ctx, repo := r.ctx, r.p.repo
	g, err := repo.GroupByName(ctx, r.session.ID, name)
	ok, err := found(err)
	if err != nil {
		return fmt.Errorf("group %s: %w", name, err)
	}
	if !ok {
		g = models.Group{GameSessionID: r.session.ID, Name: name}
		if err := repo.CreateGroup(ctx, &g); err != nil {
			return fmt.Errorf("create group %s: %w", name, err)
		}
	}
	r.group = g
	return nil
}

// objectiveID resolves (learning_goal, field) to an objective ID. Both keys
// must be given together; when both are absent and not required the result
// is nil without an error.
func (r *run) objectiveID(field string, required bool, find func(learningGoalID int64, code string) (models.Objective, error)) (*int64, error) {
	hasObjective, hasGoal := r.req.Has(field), r.req.Has("learning_goal")
	switch {
	case !hasObjective && !hasGoal && !required:
		return nil, nil
	case required && (!hasObjective || !hasGoal):
		return nil, r.reject("no %s or learning_goal found", field)
	case hasObjective && !hasGoal:
		return nil, r.reject("if %s is specified, learning_goal should be specified as well", field)
	case !hasObjective && hasGoal:
		return nil, r.reject("if learning_goal is specified, %s should be specified as well", field)
	}

	goalCode := r.req.Value("learning_goal")
	goal, err := r.p.repo.LearningGoalByCode(r.ctx, r.mission.ID, goalCode)
	if err := r.lookup(err, "no record found for learning goal %s that belongs to game mission %s", goalCode, r.mission.Code); err != nil {
		return nil, err
	}
	code := r.req.Value(field)
	obj, err := find(goal.ID, code)
	if err := r.lookup(err, "no record found for %s %s that belongs to learning goal %s", field, code, goalCode); err != nil {
		return nil, err
	}
	return &obj.ID, nil
}

func (r *run) scaleID(required bool) (*int64, error) {
	scaleType, ok := r.req.Get("scale_type")
	if !ok {
		if required {
			return nil, r.reject("no scale_type found")
		}
		return nil, nil
	}
	s, err := r.p.repo.ScaleByType(r.ctx, r.game.ID, scaleType)
	if err := r.lookup(err, "no record found for scale %s that belongs to game %s", scaleType, r.game.Code); err != nil {
		return nil, err
	}
	return &s.ID, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
