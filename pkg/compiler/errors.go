package compiler

import (
	"fmt"

	"github.com/zurustar/blockstage/pkg/block"
)

// Error is a structured compile error naming the offending node. One error
// fails only the handler being compiled; every other script keeps
// compiling.
type Error struct {
	NodeID  string
	Kind    block.Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("compile error at node %q (%s): %s", e.NodeID, e.Kind, e.Message)
	}
	return fmt.Sprintf("compile error (%s): %s", e.Kind, e.Message)
}

func errAt(n *block.Node, format string, args ...any) *Error {
	e := &Error{Message: fmt.Sprintf(format, args...)}
	if n != nil {
		e.NodeID = n.ID
		e.Kind = n.Type
	}
	return e
}
