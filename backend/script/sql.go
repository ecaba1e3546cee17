package script

import (
	"fmt"
	"strings"

	"github.com/kbukum/flowc/connector"
	"github.com/kbukum/flowc/indicator"
)

// SQL emits one CREATE TEMP VIEW per node. File readers use DuckDB table
// functions.
type SQL struct{}

func (SQL) Name() string { return "sql" }

func view(v, query string) string {
	return fmt.Sprintf("CREATE TEMP VIEW %s AS %s;", v, query)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func ident(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (SQL) Source(v string, loc connector.Location) string {
	var from string
	switch loc.Format {
	case connector.FormatCSV:
		from = "read_csv_auto(" + quote(loc.Path) + ")"
	case connector.FormatParquet:
		from = "read_parquet(" + quote(loc.Path) + ")"
	case connector.FormatJSONL:
		from = "read_json_auto(" + quote(loc.Path) + ")"
	default:
		name := loc.Path
		if name == "" {
			name = "unknown"
		}
		from = ident(name)
	}
	return view(v, "SELECT * FROM "+from)
}

func (SQL) Filter(v, in, expr string) string {
	if expr == "" {
		expr = "TRUE"
	}
	return view(v, fmt.Sprintf("SELECT * FROM %s WHERE %s", in, expr))
}

func (s SQL) Map(v, in, expr, fn string) string {
	if expr == "" {
		return view(v, "SELECT * FROM "+in) + " " + s.Comment("map "+fn+" has no expression")
	}
	return view(v, fmt.Sprintf("SELECT *, (%s) AS payload FROM %s", expr, in))
}

const cumulative = "ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW"

func (SQL) Indicator(v, in string, kind indicator.Kind, p indicator.Params) string {
	cols := indicator.Columns(kind, p)
	window := fmt.Sprintf("ROWS BETWEEN %d PRECEDING AND CURRENT ROW", p.Window-1)
	full := func(expr string) string {
		return fmt.Sprintf("CASE WHEN COUNT(*) OVER w = %d THEN %s END", p.Window, expr)
	}

	var exprs []string
	switch kind {
	case indicator.KindSMA:
		exprs = []string{full(fmt.Sprintf("AVG(%s) OVER w", p.Field))}
	case indicator.KindBBands:
		mid := fmt.Sprintf("AVG(%s) OVER w", p.Field)
		sd := fmt.Sprintf("%g * STDDEV_POP(%s) OVER w", p.Std, p.Field)
		exprs = []string{full(mid), full(mid + " + " + sd), full(mid + " - " + sd)}
	case indicator.KindVWAP:
		price := fmt.Sprintf("COALESCE(%s, %s)", p.Price, p.Close)
		exprs = []string{fmt.Sprintf(
			"COALESCE(SUM(%s * %s) OVER c / NULLIF(SUM(%s) OVER c, 0), %s)",
			price, p.Vol, p.Vol, price)}
	default:
		args := Args(kind, p)
		for _, c := range cols {
			exprs = append(exprs, call(c, args)+" OVER c")
		}
	}

	selects := make([]string, len(exprs))
	for i, e := range exprs {
		selects[i] = e + " AS " + cols[i]
	}
	query := fmt.Sprintf("SELECT *, %s FROM %s WINDOW w AS (%s), c AS (%s)",
		strings.Join(selects, ", "), in, window, cumulative)
	return view(v, query)
}

func (SQL) Concat(v string, in []string) string {
	parts := make([]string, len(in))
	for i, t := range in {
		parts[i] = "SELECT * FROM " + t
	}
	return view(v, strings.Join(parts, " UNION ALL "))
}

func (SQL) Choice(v, a, b string) string {
	return view(v, fmt.Sprintf(
		"SELECT * FROM %s UNION ALL SELECT * FROM %s WHERE NOT EXISTS (SELECT 1 FROM %s)", a, b, a))
}

func (SQL) Ensemble(v, a, b string) string {
	return view(v, fmt.Sprintf(
		"SELECT * FROM (SELECT *, ROW_NUMBER() OVER () AS _rn FROM %s) l "+
			"JOIN (SELECT *, ROW_NUMBER() OVER () AS _rn FROM %s) r USING (_rn)", a, b))
}

func (SQL) Join(v, a, b, on string) string {
	return view(v, fmt.Sprintf("SELECT * FROM %s JOIN %s USING (%s)", a, b, on))
}

func (SQL) Reduce(v, in, expr string) string {
	return view(v, fmt.Sprintf("SELECT %s AS value FROM %s", expr, in))
}

func (SQL) Sink(in string, loc connector.Location) string {
	if target, ok := fileTarget(loc); ok {
		return fmt.Sprintf("COPY %s TO %s;", in, quote(target))
	}
	return fmt.Sprintf("SELECT * FROM %s;", in)
}

func (SQL) Comment(text string) string { return "-- " + text }
