package resource

import "strings"

// Health summarizes a container's state and status for display.
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthUnhealthy Health = "unhealthy"
	HealthStarting  Health = "starting"
	HealthStopped   Health = "stopped"
	HealthCreated   Health = "created"
	HealthUnknown   Health = "unknown"
)

// Health classifies the container. Running containers report the health
// check outcome embedded in Status, when there is one.
func (c Container) Health() Health {
	if c.State == "" || c.Status == "" {
		return HealthUnknown
	}
	switch c.State {
	case stateRunning:
		switch {
		case strings.Contains(c.Status, "unhealthy"):
			return HealthUnhealthy
		case strings.Contains(c.Status, "starting"):
			return HealthStarting
		default:
			return HealthHealthy
		}
	case "exited":
		return HealthStopped
	case "created":
		return HealthCreated
	default:
		return HealthUnknown
	}
}
