package ir

import (
	"github.com/kbukum/flowc/errors"
)

// OpType tags what a node does. The set is closed.
type OpType string

const (
	Source   OpType = "Source"
	Map      OpType = "Map"
	Filter   OpType = "Filter"
	Reduce   OpType = "Reduce"
	Window   OpType = "Window"
	Join     OpType = "Join"
	Sink     OpType = "Sink"
	Union    OpType = "Union"
	Choice   OpType = "Choice"
	Ensemble OpType = "Ensemble"
	Merge    OpType = "Merge"
	Custom   OpType = "Custom"
)

var opTypes = []OpType{Source, Map, Filter, Reduce, Window, Join, Sink, Union, Choice, Ensemble, Merge, Custom}

// OpTypes returns every tag in declaration order.
func OpTypes() []OpType {
	out := make([]OpType, len(opTypes))
	copy(out, opTypes)
	return out
}

// Valid reports whether t is one of the declared tags.
func (t OpType) Valid() bool {
	for _, known := range opTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t OpType) String() string { return string(t) }

// ParseOpType converts a tag name to an OpType.
func ParseOpType(s string) (OpType, error) {
	t := OpType(s)
	if !t.Valid() {
		return "", errors.InvalidInput("type", "unknown op type "+s)
	}
	return t, nil
}
