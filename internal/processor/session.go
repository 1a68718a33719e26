package processor

import (
	"errors"
	"fmt"
	"time"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// Keys that identify a game session by code.
var sessionCodeKeys = []string{"game_session_code", "game_code", "game_version_code", "organization_code"}

func (r *run) resolveSession() error {
	if token, ok := r.req.Get("session_token"); ok {
		return r.sessionByToken(token)
	}
	for _, k := range sessionCodeKeys {
		if !r.req.Has(k) {
			return r.reject("request contains neither session_token nor game_session_code, game_code, game_version_code and organization_code")
		}
	}
	return r.sessionByCode(
		r.req.Value("game_session_code"),
		r.req.Value("game_code"),
		r.req.Value("game_version_code"),
		r.req.Value("organization_code"),
	)
}

// sessionByToken follows the session's foreign keys to its version, game,
// organization and grant. No code from the request is consulted.
func (r *run) sessionByToken(token string) error {
	// auto-created sessions carry an empty token
	if token == "" {
		return r.reject("session_token is empty")
	}
	ctx, repo := r.ctx, r.p.repo

	s, err := repo.SessionByToken(ctx, token)
	if err := r.lookup(err, "session_token %s not found in database", token); err != nil {
		return err
	}
	r.session = s

	r.version, err = repo.GameVersionByID(ctx, s.GameVersionID)
	if err := r.lookup(err, "no game version %d for game session %s", s.GameVersionID, s.Code); err != nil {
		return err
	}
	r.game, err = repo.GameByID(ctx, r.version.GameID)
	if err := r.lookup(err, "no game %d for game version %s", r.version.GameID, r.version.Code); err != nil {
		return err
	}
	r.organization, err = repo.OrganizationByID(ctx, s.OrganizationID)
	if err := r.lookup(err, "no organization %d for game session %s", s.OrganizationID, s.Code); err != nil {
		return err
	}
	r.grant, err = repo.OrganizationGame(ctx, r.organization.ID, r.game.ID)
	return r.lookup(err, "no access record found for organization %s for game %s", r.organization.Code, r.game.Code)
}

// sessionByCode resolves the chain from codes and creates the session on
// first contact when the grant allows anonymous sessions without tokens.
func (r *run) sessionByCode(sessionCode, gameCode, versionCode, orgCode string) error {
	ctx, repo := r.ctx, r.p.repo
	var err error

	r.game, err = repo.GameByCode(ctx, gameCode)
	if err := r.lookup(err, "no record found for game %s", gameCode); err != nil {
		return err
	}
	r.version, err = repo.GameVersionByCode(ctx, r.game.ID, versionCode)
	if err := r.lookup(err, "no record found for game version %s for game %s", versionCode, gameCode); err != nil {
		return err
	}
	r.organization, err = repo.OrganizationByCode(ctx, orgCode)
	if err := r.lookup(err, "no record found for organization %s", orgCode); err != nil {
		return err
	}
	r.grant, err = repo.OrganizationGame(ctx, r.organization.ID, r.game.ID)
	if err := r.lookup(err, "no access record found for organization %s for game %s", orgCode, gameCode); err != nil {
		return err
	}

	s, err := repo.SessionByCode(ctx, sessionCode, r.version.ID, r.organization.ID)
	switch {
	case err == nil:
		if s.TokenForced {
			return r.reject("anonymous access without token for game session %s for game %s, but token is forced", sessionCode, gameCode)
		}
		r.session = s
		return nil
	case !errors.Is(err, models.ErrNotFound):
		return fmt.Errorf("game session %s: %w", sessionCode, err)
	}

	if r.grant.TokenForced {
		return r.reject("anonymous access without token for game session %s for game %s, but token is forced for organization %s", sessionCode, gameCode, orgCode)
	}
	if !r.grant.AnonymousSessions {
		return r.reject("anonymous access without token for game session %s for game %s, but anonymous access is not allowed", sessionCode, gameCode)
	}

	now := r.p.now().In(r.p.loc)
	s = models.GameSession{
		GameVersionID:  r.version.ID,
		OrganizationID: r.organization.ID,
		Code:           sessionCode,
		Name:           sessionCode,
		Description:    "Autogenerated",
		Valid:          true,
		PlayDate:       time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
	if err := repo.CreateSession(ctx, &s); err != nil {
		return fmt.Errorf("create game session %s: %w", sessionCode, err)
	}
	r.session = s
	return nil
}

func (r *run) checkTokens() error {
	ctx, repo := r.ctx, r.p.repo
	if r.game.TokenForced {
		err := r.checkToken("game_token", "game", func(v string) (models.AccessToken, error) {
			return repo.GameToken(ctx, r.game.ID, v)
		})
		if err != nil {
			return err
		}
	}
	if r.grant.TokenForced {
		return r.checkToken("organization_game_token", "organization-game", func(v string) (models.AccessToken, error) {
			return repo.OrganizationGameToken(ctx, r.grant.ID, v)
		})
	}
	return nil
}

func (r *run) checkToken(field, scope string, find func(string) (models.AccessToken, error)) error {
	value, ok := r.req.Get(field)
	if !ok {
		return r.reject("field %s not found, while %s token is forced", field, scope)
	}
	tok, err := find(value)
	if err := r.lookup(err, "field %s does not exist in database (%s token is %s)", field, scope, value); err != nil {
		return err
	}
	if !tok.Writer {
		return r.reject("used %s does not allow write access (%s token is %s)", field, scope, value)
	}
	return nil
}

func (r *run) resolveMission() error {
	code, ok := r.req.Get("game_mission")
	if !ok {
		return r.reject("no game_mission tag found")
	}
	var err error
	r.mission, err = r.p.repo.GameMissionByCode(r.ctx, r.version.ID, code)
	return r.lookup(err, "no record found for game mission %s", code)
}
