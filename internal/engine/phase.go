package engine

import (
	"slices"

	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
)

// transitions is the only way turnPhase may change. ROLL never reaches
// ACTION and END never reaches MOVING directly.
var transitions = map[models.TurnPhase][]models.TurnPhase{
	models.PhaseRoll:   {models.PhaseMoving, models.PhaseEnd},
	models.PhaseMoving: {models.PhaseAction, models.PhaseEnd},
	models.PhaseAction: {models.PhaseEnd, models.PhaseRoll},
	models.PhaseEnd:    {models.PhaseRoll},
}

// CanTransition reports whether the turn phase may move from one phase to
// another.
func CanTransition(from, to models.TurnPhase) bool {
	return slices.Contains(transitions[from], to)
}

func (t *turn) setPhase(to models.TurnPhase) error {
	from := t.g.TurnPhase
	if !CanTransition(from, to) {
		return apperr.Newf(apperr.CodeInvariantViolation, "illegal phase transition %s -> %s", from, to)
	}
	t.g.TurnPhase = to
	return nil
}
