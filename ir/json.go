package ir

import (
	"encoding/json"
	"fmt"
	"reflect"
	"runtime"
	"sort"

	"github.com/kbukum/flowc/errors"
)

// nodeJSON is the serialized form of a Node.
type nodeJSON struct {
	ID      string         `json:"id"`
	Type    OpType         `json:"type"`
	Config  map[string]any `json:"config"`
	Parents []string       `json:"parents"`
}

// graphJSON is the serialized form of a Graph.
type graphJSON struct {
	ID    string      `json:"id"`
	Nodes []nodeJSON  `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// MarshalJSON renders {id, nodes:[{id,type,config,parents}], edges:[[p,c]]}.
// Config values that JSON cannot carry, such as callables, are rendered as
// display strings.
func (g *Graph) MarshalJSON() ([]byte, error) {
	out := graphJSON{
		ID:    g.id,
		Nodes: make([]nodeJSON, 0, len(g.order)),
		Edges: make([][2]string, 0, len(g.edges)),
	}
	for _, id := range g.order {
		n := g.nodes[id]
		cfg := make(map[string]any, len(n.config))
		for k, v := range n.config {
			cfg[k] = Displayable(v)
		}
		parents := n.parents
		if parents == nil {
			parents = []string{}
		}
		out.Nodes = append(out.Nodes, nodeJSON{ID: n.id, Type: n.op, Config: cfg, Parents: parents})
	}
	for _, e := range g.edges {
		out.Edges = append(out.Edges, [2]string{e.Parent, e.Child})
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds a graph from its projection. Edges are re-derived
// from node parents; display strings stay strings.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var in graphJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.InvalidInput("graph", err.Error())
	}
	fresh := NewGraphWithID(in.ID)
	for _, nj := range in.Nodes {
		if !nj.Type.Valid() {
			return errors.InvalidInput("type", fmt.Sprintf("node %s has unknown op type %q", nj.ID, nj.Type))
		}
		fresh.AddNode(NewNode(nj.ID, nj.Type, nj.Config, nj.Parents...))
	}
	*g = *fresh
	return nil
}

// Decode parses a graph projection.
func Decode(data []byte) (*Graph, error) {
	g := &Graph{}
	if err := json.Unmarshal(data, g); err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, errors.InvalidInput("graph", err.Error())
	}
	return g, nil
}

// Displayable converts a config value into something encoding/json can carry
// without executing it.
func Displayable(v any) any {
	switch x := v.(type) {
	case nil, string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return x
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		if rv.IsNil() {
			return nil
		}
		if fn := runtime.FuncForPC(rv.Pointer()); fn != nil {
			return fn.Name()
		}
		return rv.Type().String()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Displayable(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Sprint(v)
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			out[k] = Displayable(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Displayable(rv.Elem().Interface())
	case reflect.Struct:
		return fmt.Sprintf("%+v", v)
	default:
		return fmt.Sprint(v)
	}
}
