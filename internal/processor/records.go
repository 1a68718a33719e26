package processor

import (
	"math"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// build resolves the attempt context for kind and extracts the
// kind-specific fields into a record.
func (r *run) build(kind models.DataKind) (models.Record, error) {
	if err := r.resolveAttempt(kind); err != nil {
		return nil, err
	}

	switch kind {
	case models.KindMissionEvent, models.KindPlayerEvent, models.KindGroupEvent:
		ev, err := r.eventFields()
		if err != nil {
			return nil, err
		}
		switch kind {
		case models.KindMissionEvent:
			return models.MissionEvent{
				GameSessionID:        r.session.ID,
				GameMissionID:        r.mission.ID,
				EventFields:          ev,
				FacilitatorInitiated: soft(r, Bool(r.req, "facilitator_initiated", false, false)),
			}, nil
		case models.KindPlayerEvent:
			return models.PlayerEvent{
				PlayerAttemptID: r.playerAttempt.ID,
				EventFields:     ev,
				PlayerInitiated: soft(r, Bool(r.req, "player_initiated", false, false)),
			}, nil
		default:
			return models.GroupEvent{
				GroupAttemptID: r.groupAttempt.ID,
				EventFields:    ev,
				GroupInitiated: soft(r, Bool(r.req, "group_initiated", false, false)),
			}, nil
		}
	}

	repo := r.p.repo
	if kind == models.KindPlayerScore {
		objID, err := r.objectiveID("player_objective", false, func(goalID int64, code string) (models.Objective, error) {
			return repo.PlayerObjectiveByCode(r.ctx, goalID, code)
		})
		if err != nil {
			return nil, err
		}
		sc, err := r.scoreFields()
		if err != nil {
			return nil, err
		}
		return models.PlayerScore{
			PlayerAttemptID:   r.playerAttempt.ID,
			PlayerObjectiveID: objID,
			ScoreFields:       sc,
		}, nil
	}

	objID, err := r.objectiveID("group_objective", false, func(goalID int64, code string) (models.Objective, error) {
		return repo.GroupObjectiveByCode(r.ctx, goalID, code)
	})
	if err != nil {
		return nil, err
	}
	sc, err := r.scoreFields()
	if err != nil {
		return nil, err
	}
	return models.GroupScore{
		GroupAttemptID:   r.groupAttempt.ID,
		GroupObjectiveID: objID,
		ScoreFields:      sc,
	}, nil
}

// eventFields reads the fields shared by all events. The type defaults to
// "string" while key and value are required.
func (r *run) eventFields() (models.EventFields, error) {
	typ := soft(r, String(r.req, "type", false, "string"))
	key, err := r.require("key")
	if err != nil {
		return models.EventFields{}, err
	}
	value, err := r.require("value")
	if err != nil {
		return models.EventFields{}, err
	}
	return models.EventFields{
		Type:         typ,
		Key:          key,
		Value:        value,
		Timestamp:    soft(r, DateTime(r.req, "timestamp", false, r.task.Timestamp, r.p.loc)),
		Status:       r.optional("status"),
		Round:        r.optional("round"),
		GameTime:     r.optional("game_time"),
		GroupingCode: r.optional("grouping_code"),
	}, nil
}

func (r *run) scoreFields() (models.ScoreFields, error) {
	scaleID, err := r.scaleID(false)
	if err != nil {
		return models.ScoreFields{}, err
	}
	scoreType, err := r.require("score_type")
	if err != nil {
		return models.ScoreFields{}, err
	}
	return models.ScoreFields{
		ScoreType:      scoreType,
		ScaleID:        scaleID,
		Delta:          nullable(soft(r, Float(r.req, "delta", false, math.NaN()))),
		NewScoreNumber: nullable(soft(r, Float(r.req, "new_score_number", false, math.NaN()))),
		NewScoreString: r.optional("new_score_string"),
		Timestamp:      soft(r, DateTime(r.req, "timestamp", false, r.task.Timestamp, r.p.loc)),
		FinalScore:     soft(r, Bool(r.req, "final_score", false, false)),
		Status:         r.optional("status"),
		Round:          r.optional("round"),
		GameTime:       r.optional("game_time"),
		GroupingCode:   r.optional("grouping_code"),
	}, nil
}

// nullable maps the NaN "not given" sentinel to nil.
func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
