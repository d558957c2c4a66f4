package socialleads

import (
	"errors"
	"fmt"

	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/models"
)

// ErrInvalidTransition is matched by every rejected lead status change.
var ErrInvalidTransition = errors.New("invalid social lead transition")

// TransitionError describes a rejected lead status change.
type TransitionError struct {
	LeadID string
	From   models.SocialLeadStatus
	To     models.SocialLeadStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("lead %s cannot move from %s to %s", e.LeadID, e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidTransition) match.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Replied, failed and dismissed are terminal.
var transitions = map[models.SocialLeadStatus][]models.SocialLeadStatus{
	models.LeadNew:      {models.LeadApproved, models.LeadDismissed},
	models.LeadApproved: {models.LeadReplied, models.LeadFailed, models.LeadDismissed},
}

// CanTransition reports whether a lead may move from -> to.
func CanTransition(from, to models.SocialLeadStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known lead status.
func ValidStatus(s models.SocialLeadStatus) bool {
	switch s {
	case models.LeadNew, models.LeadApproved, models.LeadReplied, models.LeadDismissed, models.LeadFailed:
		return true
	}
	return false
}

// RejectTransition builds the INVALID_STATE error for a refused move.
func RejectTransition(leadID string, from, to models.SocialLeadStatus) error {
	te := &TransitionError{LeadID: leadID, From: from, To: to}
	return domain.NewInvalidStateError(te.Error(), te)
}
