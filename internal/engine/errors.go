package engine

import "errors"

var ErrOutOfTurn = errors.New("out of turn")
var ErrDraftPaused = errors.New("draft paused")
var ErrDraftComplete = errors.New("draft already completed")
var ErrItemUnavailable = errors.New("item unavailable")
var ErrNothingToUndo = errors.New("nothing to undo")
var ErrNotFound = errors.New("not found")
var ErrInvalidDraft = errors.New("invalid draft")

// Reason is the machine-readable code sent to a client whose request was rejected.
type Reason string

const (
	ReasonOutOfTurn       Reason = "OUT_OF_TURN"
	ReasonDraftPaused     Reason = "DRAFT_PAUSED"
	ReasonDraftComplete   Reason = "DRAFT_COMPLETE"
	ReasonItemUnavailable Reason = "ITEM_UNAVAILABLE"
	ReasonNothingToUndo   Reason = "NOTHING_TO_UNDO"
	ReasonNotFound        Reason = "NOT_FOUND"
	ReasonUnknown         Reason = "UNKNOWN"
)

// ReasonOf maps an engine error (possibly wrapped) to its wire reason.
func ReasonOf(err error) Reason {
	switch {
	case errors.Is(err, ErrOutOfTurn):
		return ReasonOutOfTurn
	case errors.Is(err, ErrDraftPaused):
		return ReasonDraftPaused
	case errors.Is(err, ErrDraftComplete):
		return ReasonDraftComplete
	case errors.Is(err, ErrItemUnavailable):
		return ReasonItemUnavailable
	case errors.Is(err, ErrNothingToUndo):
		return ReasonNothingToUndo
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	default:
		return ReasonUnknown
	}
}
