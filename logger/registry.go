package logger

import (
	"sync"
)

// registry holds the process logger and named component loggers.
var registry = &loggerRegistry{
	loggers: make(map[string]*Logger),
}

type loggerRegistry struct {
	mu      sync.RWMutex
	root    *Logger
	loggers map[string]*Logger
}

// Init replaces the process logger built from cfg and clears named loggers.
func Init(cfg Config, name string) *Logger {
	cfg.ApplyDefaults()
	l := New(&cfg, name)
	registry.mu.Lock()
	registry.root = l
	registry.loggers = make(map[string]*Logger)
	registry.mu.Unlock()
	return l
}

// SetRoot sets the process logger.
func SetRoot(l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.root = l
}

// Root returns the process logger, creating a default one if needed.
func Root() *Logger {
	registry.mu.RLock()
	l := registry.root
	registry.mu.RUnlock()
	if l != nil {
		return l
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.root == nil {
		registry.root = NewDefault("flowc")
	}
	return registry.root
}

// Register stores a named logger in the registry.
func Register(name string, l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.loggers[name] = l
}

// Get retrieves a named logger. Unregistered names get the process logger
// tagged with the component name.
func Get(name string) *Logger {
	registry.mu.RLock()
	l, ok := registry.loggers[name]
	registry.mu.RUnlock()
	if ok {
		return l
	}
	return Root().WithComponent(name)
}
