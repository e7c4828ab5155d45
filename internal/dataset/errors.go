package dataset

import (
	"errors"
	"fmt"
)

// InputError reports a table that is not well formed (ragged rows,
// duplicate or missing column names). Row and Column are -1 / "" when
// they do not apply.
type InputError struct {
	Reason string
	Row    int
	Column string
}

func (e *InputError) Error() string {
	switch {
	case e.Row >= 0 && e.Column != "":
		return fmt.Sprintf("invalid dataset: %s (row %d, column %q)", e.Reason, e.Row, e.Column)
	case e.Row >= 0:
		return fmt.Sprintf("invalid dataset: %s (row %d)", e.Reason, e.Row)
	case e.Column != "":
		return fmt.Sprintf("invalid dataset: %s (column %q)", e.Reason, e.Column)
	}
	return "invalid dataset: " + e.Reason
}

// IsInputError reports whether err wraps an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

func inputErr(reason string) *InputError { return &InputError{Reason: reason, Row: -1} }
