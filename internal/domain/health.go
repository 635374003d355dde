package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	LatencyMs     int64   `json:"latencyMs"`
	UptimePercent float64 `json:"uptimePercent"`
	LastChecked   string  `json:"lastChecked"`
}

// EngineMetrics is returned by GET /v1/metrics/engine and feeds the
// dashboard's operational cards.
type EngineMetrics struct {
	TotalRequests       int64   `json:"totalRequests"`
	ErrorRate           float64 `json:"errorRate"`
	RecordsClassified   int64   `json:"recordsClassified"`
	AssignmentsSaved    int64   `json:"assignmentsSaved"`
	AssignmentsCleared  int64   `json:"assignmentsCleared"`
	AssignmentsRejected int64   `json:"assignmentsRejected"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	Period              string  `json:"period"`
}
