package obs

import "context"

// HealthStatus is the result of a health check.
type HealthStatus struct {
	Status string
	Checks map[string]*CheckResult
}

// CheckResult is a single named check within a HealthStatus.
type CheckResult struct {
	Healthy bool
	Message string
}

// HealthSource is the minimal view of an open index a health check needs.
// Implemented by the public façade so this package has no dependency on
// it (avoids an import cycle between obs and the façade that consumes
// obs for metrics).
type HealthSource interface {
	NumPoints() int64
	LiveCount() int64
	HasEntrypoint() bool
}

// HealthChecker reports whether an open index's basic invariants hold.
type HealthChecker struct {
	src HealthSource
}

// NewHealthChecker creates a health checker over src.
func NewHealthChecker(src HealthSource) *HealthChecker {
	return &HealthChecker{src: src}
}

// Check verifies that the entrypoint is set if and only if at least one
// live node exists. It reports that one check only; point counts are not
// included in the status.
func (hc *HealthChecker) Check(ctx context.Context) (*HealthStatus, error) {
	checks := map[string]*CheckResult{}

	live := hc.src.LiveCount()
	hasEntry := hc.src.HasEntrypoint()
	entrypointOK := (live > 0) == hasEntry
	checks["entrypoint_invariant"] = &CheckResult{
		Healthy: entrypointOK,
		Message: "entrypoint presence matches live point count",
	}

	status := "healthy"
	for _, c := range checks {
		if !c.Healthy {
			status = "unhealthy"
		}
	}

	return &HealthStatus{Status: status, Checks: checks}, nil
}
