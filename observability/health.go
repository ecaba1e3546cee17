package observability

// HealthStatus is the state of a backend runtime.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes one backend.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Report aggregates the health of every registered backend.
type Report struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// NewReport creates a report with status up.
func NewReport(service, version string) *Report {
	return &Report{Service: service, Status: HealthStatusUp, Version: version}
}

// Add appends a component and degrades the overall status. Down is never
// overridden by degraded.
func (r *Report) Add(h Health) {
	r.Components = append(r.Components, h)
	switch h.Status {
	case HealthStatusDown:
		r.Status = HealthStatusDown
	case HealthStatusDegraded:
		if r.Status != HealthStatusDown {
			r.Status = HealthStatusDegraded
		}
	}
}
