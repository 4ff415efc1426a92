package formation

import "errors"

// Status is the outcome of a formation request
type Status string

const (
	StatusOK                  Status = "ok"
	StatusInsufficientMembers Status = "insufficientMembers"
	StatusCarryTargetNotFound Status = "carryTargetNotFound"
	StatusCarryListEmpty      Status = "carryListEmpty"
	StatusInvalidStrategy     Status = "invalidStrategy"
	StatusNoTeamsFormed       Status = "noTeamsFormed"
)

var (
	ErrInsufficientMembers = errors.New("not enough members to form a team")
	ErrCarryTargetNotFound = errors.New("carry target is not in the candidate pool")
	ErrCarryListEmpty      = errors.New("carry strategy requires a carried player")
	ErrInvalidStrategy     = errors.New("invalid strategy")
	ErrNoTeamsFormed       = errors.New("no teams formed")
)

var statusErrors = map[Status]error{
	StatusInsufficientMembers: ErrInsufficientMembers,
	StatusCarryTargetNotFound: ErrCarryTargetNotFound,
	StatusCarryListEmpty:      ErrCarryListEmpty,
	StatusInvalidStrategy:     ErrInvalidStrategy,
	StatusNoTeamsFormed:       ErrNoTeamsFormed,
}

// Err returns the sentinel error for a non-ok status, or nil
func (s Status) Err() error {
	return statusErrors[s]
}

// StatusOf maps an error returned by Form back to its status.
// nil maps to StatusOK; unrelated errors map to the empty status.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	for status, sentinel := range statusErrors {
		if errors.Is(err, sentinel) {
			return status
		}
	}
	return ""
}
