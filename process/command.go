package process

import (
	"os"
	"time"
)

const defaultGracePeriod = 5 * time.Second

// Command is one invocation of a runtime binary such as python or nvcc.
type Command struct {
	Binary string
	Args   []string

	// Env entries (KEY=value) are appended to the current environment.
	Env []string

	// GracePeriod is the wait between SIGTERM and SIGKILL once the context
	// is done. Zero means 5s.
	GracePeriod time.Duration
}

func (c Command) gracePeriod() time.Duration {
	if c.GracePeriod > 0 {
		return c.GracePeriod
	}
	return defaultGracePeriod
}

func (c Command) environ() []string {
	if len(c.Env) == 0 {
		return nil
	}
	return append(os.Environ(), c.Env...)
}
