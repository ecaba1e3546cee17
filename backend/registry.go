package backend

import (
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/logger"
)

// Origin tells where a registry entry came from.
type Origin string

const (
	OriginPlugin  Origin = "plugin"
	OriginBuiltin Origin = "builtin"
)

// Entry describes one registered backend name. Dialect families are listed
// as "family:*".
type Entry struct {
	Name   string
	Origin Origin
}

// Registry maps backend names to factories. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]Factory
	builtins map[string]Factory
	families map[string]Factory
	log      *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:  make(map[string]Factory),
		builtins: make(map[string]Factory),
		families: make(map[string]Factory),
		log:      logger.Get("backend"),
	}
}

// RegisterBackend adds a plugin backend. Plugins are searched before
// built-ins, so a plugin may shadow a built-in name. Registering a name twice
// replaces the earlier factory.
func (r *Registry) RegisterBackend(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[name]; exists {
		r.log.Warn("backend plugin replaced", logger.Fields(logger.FieldBackend, name))
	}
	r.plugins[name] = factory
}

// RegisterBuiltin adds a built-in backend. A prefix ending in ":" (for
// example "script:") registers a dialect family resolved as family:dialect;
// any other prefix is an exact name.
func (r *Registry) RegisterBuiltin(prefix string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if family, ok := strings.CutSuffix(prefix, ":"); ok {
		r.families[family] = factory
		return
	}
	r.builtins[prefix] = factory
}

// Resolve creates the backend registered under name.
func (r *Registry) Resolve(name string) (Backend, error) {
	return r.ResolveWith(name, nil)
}

// ResolveWith creates the backend registered under name with cfg.
func (r *Registry) ResolveWith(name string, cfg map[string]any) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.plugins[name]
	if !ok {
		factory, ok = r.builtins[name]
	}
	var dialect string
	if !ok {
		if family, d, found := strings.Cut(name, ":"); found && d != "" {
			factory, ok = r.families[family]
			dialect = d
		}
	}
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownBackend(name)
	}

	merged := make(map[string]any, len(cfg)+1)
	for k, v := range cfg {
		merged[k] = v
	}
	if dialect != "" {
		merged["dialect"] = dialect
	}
	return factory(merged)
}

// Entries lists every registered name: plugins first, then built-ins, each
// group sorted.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugins := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		plugins = append(plugins, name)
	}
	builtins := make([]string, 0, len(r.builtins)+len(r.families))
	for name := range r.builtins {
		builtins = append(builtins, name)
	}
	for family := range r.families {
		builtins = append(builtins, family+":*")
	}
	sort.Strings(plugins)
	sort.Strings(builtins)

	out := make([]Entry, 0, len(plugins)+len(builtins))
	for _, n := range plugins {
		out = append(out, Entry{Name: n, Origin: OriginPlugin})
	}
	for _, n := range builtins {
		out = append(out, Entry{Name: n, Origin: OriginBuiltin})
	}
	return out
}

// Names returns the names from Entries.
func (r *Registry) Names() []string {
	entries := r.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// Install runs each plugin against the registry.
func (r *Registry) Install(plugins ...Plugin) {
	for _, p := range plugins {
		p.Install(r)
	}
}
