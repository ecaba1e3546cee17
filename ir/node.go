package ir

import (
	"strconv"
	"strings"

	"github.com/kbukum/flowc/util"
)

// Node is one pipeline stage. It never changes after construction; two nodes
// are the same node only when their ids are equal.
type Node struct {
	id      string
	op      OpType
	config  map[string]any
	parents []string
}

// NewNode builds a node. config and parents are copied.
func NewNode(id string, op OpType, config map[string]any, parents ...string) Node {
	cfg := make(map[string]any, len(config))
	for k, v := range config {
		cfg[k] = v
	}
	ps := make([]string, len(parents))
	copy(ps, parents)
	return Node{id: id, op: op, config: cfg, parents: ps}
}

// ID returns the node id.
func (n Node) ID() string { return n.id }

// Op returns the node's op type.
func (n Node) Op() OpType { return n.op }

// ShortID is the first eight characters of the id, for display only.
func (n Node) ShortID() string {
	if len(n.id) > 8 {
		return n.id[:8]
	}
	return n.id
}

// Ident returns Ident(n.ID()).
func (n Node) Ident() string { return Ident(n.id) }

// Ident derives a code identifier from a full node id. Lowercase letters and
// digits pass through, ':' becomes "__" and any other byte becomes '_'
// followed by two hex digits, so distinct ids never share an identifier.
// The result is valid in SQL, DolphinDB, Python, C and DOT once prefixed
// with a letter.
func Ident(id string) string {
	var sb strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			sb.WriteByte(c)
		case c == ':':
			sb.WriteString("__")
		default:
			sb.WriteByte('_')
			if c < 0x10 {
				sb.WriteByte('0')
			}
			sb.WriteString(strconv.FormatUint(uint64(c), 16))
		}
	}
	return sb.String()
}

// Parents returns a copy of the ordered parent ids.
func (n Node) Parents() []string {
	out := make([]string, len(n.parents))
	copy(out, n.parents)
	return out
}

// NumParents returns the number of parents.
func (n Node) NumParents() int { return len(n.parents) }

// Config returns a copy of the node configuration.
func (n Node) Config() map[string]any {
	out := make(map[string]any, len(n.config))
	for k, v := range n.config {
		out[k] = v
	}
	return out
}

// Value returns a raw config value.
func (n Node) Value(key string) (any, bool) {
	v, ok := n.config[key]
	return v, ok
}

// Str returns a config value rendered as text, or def when absent or empty.
func (n Node) Str(key, def string) string {
	v, ok := n.config[key]
	if !ok || v == nil {
		return def
	}
	if s := util.ToString(v); s != "" {
		return s
	}
	return def
}

// Int returns a numeric config value as int, or def.
func (n Node) Int(key string, def int) int {
	if i, ok := util.ToInt(n.config[key]); ok {
		return i
	}
	return def
}

// Float returns a numeric config value as float64, or def.
func (n Node) Float(key string, def float64) float64 {
	if f, ok := util.ToFloat(n.config[key]); ok {
		return f
	}
	return def
}

// Kind returns the custom-op kind, or "" for non-custom nodes.
func (n Node) Kind() string {
	if n.op != Custom {
		return ""
	}
	return n.Str("kind", "")
}
