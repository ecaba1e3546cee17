package script

import (
	"strings"
)

// Program is generated code: statements in emission order, each owned by the
// node that produced it, plus the variable holding the current result.
// Programs are immutable; Append and Merge return new values.
type Program struct {
	ids   []string
	stmts map[string]string
	Var   string
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{stmts: make(map[string]string)}
}

// Merge combines programs in order. A statement owned by a node already
// present is kept once, so a diamond emits its shared upstream a single time.
func Merge(programs ...*Program) *Program {
	out := NewProgram()
	for _, p := range programs {
		if p == nil {
			continue
		}
		for _, id := range p.ids {
			if _, ok := out.stmts[id]; ok {
				continue
			}
			out.ids = append(out.ids, id)
			out.stmts[id] = p.stmts[id]
		}
		out.Var = p.Var
	}
	return out
}

// Append returns a copy of p with stmt owned by id and v as the result.
// An empty statement only moves the result variable.
func (p *Program) Append(id, stmt, v string) *Program {
	out := Merge(p)
	out.Var = v
	if stmt == "" {
		return out
	}
	if _, ok := out.stmts[id]; !ok {
		out.ids = append(out.ids, id)
	}
	out.stmts[id] = stmt
	return out
}

// Statements returns the statements in order.
func (p *Program) Statements() []string {
	out := make([]string, len(p.ids))
	for i, id := range p.ids {
		out[i] = p.stmts[id]
	}
	return out
}

// Len is the number of statements.
func (p *Program) Len() int { return len(p.ids) }

// Text joins the statements with newlines.
func (p *Program) Text() string {
	return strings.Join(p.Statements(), "\n")
}

func (p *Program) String() string { return p.Text() }
