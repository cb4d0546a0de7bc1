package condition

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrUnknownAttribute = errors.New("unknown attribute")

// SyntaxError is a parse error at a byte offset of the condition.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

func newSyntaxError(offset int, msg string) *SyntaxError {
	return &SyntaxError{Offset: offset, Msg: msg}
}
