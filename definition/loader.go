package definition

import (
	"path/filepath"

	"github.com/kbukum/flowc/errors"
)

// Loader finds definitions by name for includes.
type Loader interface {
	Load(name string) (*Definition, error)
}

// FileLoader searches directories for name.yaml and name.yml.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader over dirs, searched in order.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load returns the first definition found. A file that exists but does not
// parse is an error rather than a miss.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			d, err := Load(filepath.Join(dir, name+ext))
			if errors.Is(err, errors.ErrCodeNotFound) {
				continue
			}
			return d, err
		}
	}
	return nil, errors.NotFound("definition", name).WithDetail("dirs", l.dirs)
}

// Definitions is an in-memory Loader keyed by name.
type Definitions map[string]*Definition

func (m Definitions) Load(name string) (*Definition, error) {
	d, ok := m[name]
	if !ok {
		return nil, errors.NotFound("definition", name)
	}
	return d, nil
}
