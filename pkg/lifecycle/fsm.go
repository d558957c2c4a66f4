package lifecycle

import (
	"errors"
	"fmt"

	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/models"
)

// ErrInvalidTransition is matched by every rejected intake transition.
var ErrInvalidTransition = errors.New("invalid intake transition")

// TransitionError describes a rejected intake status change.
type TransitionError struct {
	From models.IntakeStatus
	To   models.IntakeStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move intake from %s to %s", e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidTransition) match.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Approved and declined are terminal.
var intakeTransitions = map[models.IntakeStatus][]models.IntakeStatus{
	models.IntakePending: {models.IntakePending, models.IntakeApproved, models.IntakeDeclined},
}

// ValidIntakeStatus reports whether s is one of the three intake values.
func ValidIntakeStatus(s models.IntakeStatus) bool {
	switch s {
	case models.IntakePending, models.IntakeApproved, models.IntakeDeclined:
		return true
	}
	return false
}

// CanTransition reports whether the intake FSM allows from -> to.
func CanTransition(from, to models.IntakeStatus) bool {
	for _, next := range intakeTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RejectTransition builds the INVALID_STATE error for a refused move.
func RejectTransition(from, to models.IntakeStatus) error {
	te := &TransitionError{From: from, To: to}
	return domain.NewInvalidStateError(te.Error(), te)
}
