package script

import (
	"fmt"
	"strings"

	"github.com/kbukum/flowc/connector"
	"github.com/kbukum/flowc/indicator"
)

// DolphinDB emits DolphinDB script (.dos).
type DolphinDB struct{}

func (DolphinDB) Name() string { return "dolphindb" }

func (DolphinDB) Source(v string, loc connector.Location) string {
	if loc.Scheme == "dolphindb" {
		return fmt.Sprintf("%s = loadTable(%q)", v, loc.Path)
	}
	return fmt.Sprintf("%s = loadTable(\"dfs://temp\", %q)", v, loc.URI)
}

func (DolphinDB) Filter(v, in, expr string) string {
	if expr == "" {
		expr = "true"
	}
	return fmt.Sprintf("%s = select * from %s where %s", v, in, expr)
}

func (d DolphinDB) Map(v, in, expr, fn string) string {
	if expr == "" {
		return fmt.Sprintf("%s = %s %s", v, in, d.Comment("map "+fn+" has no expression"))
	}
	return fmt.Sprintf("%s = select *, %s as payload from %s", v, expr, in)
}

func (DolphinDB) Indicator(v, in string, kind indicator.Kind, p indicator.Params) string {
	cols := indicator.Columns(kind, p)
	var expr string
	switch kind {
	case indicator.KindSMA:
		expr = fmt.Sprintf("mavg(%s, %d)", p.Field, p.Window)
	case indicator.KindEMA:
		expr = fmt.Sprintf("ewmMean(%s, span=%d, adjust=false)", p.Field, p.Window)
	case indicator.KindWMA:
		expr = fmt.Sprintf("wma(%s, %d)", p.Field, p.Window)
	case indicator.KindVWAP:
		price := fmt.Sprintf("nullFill(%s, %s)", p.Price, p.Close)
		expr = fmt.Sprintf("cumsum(%s * %s) \\ cumsum(%s)", price, p.Vol, p.Vol)
	default:
		expr = call(strings.ToLower(string(kind)), Args(kind, p))
	}
	if len(cols) == 1 {
		return fmt.Sprintf("%s = select *, %s as %s from %s", v, expr, cols[0], in)
	}
	return fmt.Sprintf("%s = select *, %s as `%s from %s", v, expr, strings.Join(cols, "`"), in)
}

func (DolphinDB) Concat(v string, in []string) string {
	if len(in) == 2 {
		return fmt.Sprintf("%s = unionAll(%s, %s)", v, in[0], in[1])
	}
	return fmt.Sprintf("%s = unionAll([%s], false)", v, strings.Join(in, ", "))
}

func (DolphinDB) Choice(v, a, b string) string {
	return fmt.Sprintf("%s = iif(size(%s) > 0, %s, %s)", v, a, a, b)
}

func (DolphinDB) Ensemble(v, a, b string) string {
	return fmt.Sprintf("%s = table(%s, %s)", v, a, b)
}

func (DolphinDB) Join(v, a, b, on string) string {
	return fmt.Sprintf("%s = ej(%s, %s, %q)", v, a, b, on)
}

func (DolphinDB) Reduce(v, in, expr string) string {
	return fmt.Sprintf("%s = select %s as value from %s", v, expr, in)
}

func (DolphinDB) Sink(in string, loc connector.Location) string {
	if target, ok := fileTarget(loc); ok {
		return fmt.Sprintf("saveText(%s, %q)", in, target)
	}
	return fmt.Sprintf("print(%s)", in)
}

func (DolphinDB) Comment(text string) string { return "// " + text }

// fileTarget returns the path a sink writes to. Console and in-memory
// targets have none.
func fileTarget(loc connector.Location) (string, bool) {
	switch strings.ToLower(loc.URI) {
	case "", "stdout", "console", "memory", "collect":
		return "", false
	}
	if loc.Scheme == connector.SchemeMemory {
		return "", false
	}
	if loc.IsFile() {
		return loc.Path, true
	}
	return loc.URI, true
}
