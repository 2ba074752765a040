package types

import "time"

// HealthState is the coarse state of a store connection.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// String returns the string representation of HealthState
func (s HealthState) String() string {
	return string(s)
}

// HealthStatus is the result of a connectivity probe.
type HealthStatus struct {
	State     HealthState `json:"state"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
}

// Healthy creates a healthy status stamped with the current time.
func Healthy(message string) HealthStatus {
	return HealthStatus{State: HealthStateHealthy, Message: message, CheckedAt: time.Now()}
}

// Unhealthy creates an unhealthy status stamped with the current time.
func Unhealthy(message string) HealthStatus {
	return HealthStatus{State: HealthStateUnhealthy, Message: message, CheckedAt: time.Now()}
}

// IsHealthy returns true if the health state is healthy.
func (h HealthStatus) IsHealthy() bool {
	return h.State == HealthStateHealthy
}
