// Package builtin wires the bundled backends into a registry.
package builtin

import (
	"context"
	"strings"

	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/backend/dot"
	"github.com/kbukum/flowc/backend/kernel"
	"github.com/kbukum/flowc/backend/native"
	"github.com/kbukum/flowc/backend/plan"
	"github.com/kbukum/flowc/backend/script"
	"github.com/kbukum/flowc/backend/vector"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/observability"
	"github.com/kbukum/flowc/util"
)

// Register adds the built-in backends to r.
func Register(r *backend.Registry) {
	r.RegisterBuiltin(plan.Name, plan.New)
	r.RegisterBuiltin(native.Name, native.New)
	r.RegisterBuiltin(vector.Name, vector.New)
	r.RegisterBuiltin(script.Family+":", script.New)
	r.RegisterBuiltin(kernel.Family+":", kernel.New)
}

// Default returns a registry holding the built-in backends only.
func Default() *backend.Registry {
	r := backend.NewRegistry()
	Register(r)
	return r
}

// Plugins lists the bundled plugins by name.
func Plugins() map[string]backend.Plugin {
	return map[string]backend.Plugin{
		dot.Name: dot.Plugin{},
	}
}

// InstallPlugins installs the named bundled plugins into r.
func InstallPlugins(r *backend.Registry, names ...string) error {
	known := Plugins()
	for _, name := range names {
		p, ok := known[name]
		if !ok {
			return errors.NotFound("plugin", name).WithDetail("known", util.SortedKeys(known))
		}
		r.Install(p)
	}
	return nil
}

// Dialects returns the concrete names behind a family entry such as
// "script:*". Other names are returned as is.
func Dialects(name string) []string {
	family, ok := strings.CutSuffix(name, ":*")
	if !ok {
		return []string{name}
	}
	var dialects []string
	switch family {
	case script.Family:
		dialects = script.Dialects()
	case kernel.Family:
		dialects = kernel.Dialects()
	}
	out := make([]string, len(dialects))
	for i, d := range dialects {
		out[i] = family + ":" + d
	}
	return out
}

// Health resolves every registered backend and reports whether its runtime
// is available. A backend that fails to resolve is down.
func Health(ctx context.Context, r *backend.Registry, service, version string) *observability.Report {
	report := observability.NewReport(service, version)
	for _, e := range r.Entries() {
		for _, name := range Dialects(e.Name) {
			h := observability.Health{
				Name:    name,
				Status:  observability.HealthStatusUp,
				Details: map[string]string{"origin": string(e.Origin)},
			}
			b, err := r.Resolve(name)
			switch {
			case err != nil:
				h.Status = observability.HealthStatusDown
				h.Message = err.Error()
			default:
				if a, ok := b.(backend.Availability); ok && !a.IsAvailable(ctx) {
					h.Status = observability.HealthStatusDegraded
					h.Message = "runtime not found; code generation only"
					break
				}
				if p, ok := b.(backend.RuntimeProber); ok {
					if v, err := p.RuntimeVersion(ctx); err == nil && v != "" {
						h.Details["runtime"] = v
					}
				}
			}
			report.Add(h)
		}
	}
	return report
}
