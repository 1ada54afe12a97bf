package rawg

import "fmt"

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // Operation: "search", "getGame", "getBestMatch"
	ID  string // RAWG game id, if applicable
	Err error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("rawg %s [%s]: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("rawg %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, id string, err error) error {
	return &Error{Op: op, ID: id, Err: err}
}
