// Package block defines the serialized block-node tree that authored
// programs arrive as. A program is a forest of top-level nodes, each rooted
// at an event block; statement slots hold chains linked via Next. The node
// shape is validated by the compiler, not here: decoding accepts any tree
// and leaves per-kind slot checking to compile time.
package block

import (
	"encoding/json"
	"fmt"
)

// Node is one block of an authored program tree.
type Node struct {
	ID         string           `json:"id"`
	Type       Kind             `json:"type"`
	Fields     map[string]any   `json:"fields,omitempty"`
	Values     map[string]*Node `json:"values,omitempty"`
	Statements map[string]*Node `json:"statements,omitempty"`
	Next       *Node            `json:"next,omitempty"`
}

// Program is a forest of top-level event-rooted nodes for one object type.
type Program struct {
	Scripts []*Node `json:"scripts"`
}

// Decode parses a serialized Block Program.
func Decode(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode block program: %w", err)
	}
	return &p, nil
}

// Encode serializes a Block Program. Only the block source round-trips;
// compiled handlers are always regenerated from it.
func Encode(p *Program) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode block program: %w", err)
	}
	return data, nil
}

// FieldString returns the named field coerced to a string.
// Missing fields return the fallback.
func (n *Node) FieldString(name, fallback string) string {
	v, ok := n.Fields[name]
	if !ok {
		return fallback
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return fmt.Sprintf("%g", s)
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return fallback
	}
}

// FieldNumber returns the named field coerced to a number.
// Missing or non-numeric fields return the fallback.
func (n *Node) FieldNumber(name string, fallback float64) float64 {
	v, ok := n.Fields[name]
	if !ok {
		return fallback
	}
	switch f := v.(type) {
	case float64:
		return f
	case int:
		return float64(f)
	case json.Number:
		parsed, err := f.Float64()
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}

// Value returns the node filling the named value slot, or nil.
func (n *Node) Value(name string) *Node {
	if n.Values == nil {
		return nil
	}
	return n.Values[name]
}

// Statement returns the head of the chain in the named statement slot, or nil.
func (n *Node) Statement(name string) *Node {
	if n.Statements == nil {
		return nil
	}
	return n.Statements[name]
}
