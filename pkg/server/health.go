package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// HealthStatus represents the health status of the service.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	System    *SystemInfo            `json:"system,omitempty"`
}

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SystemInfo contains system information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemoryAlloc  uint64 `json:"memory_alloc_bytes"`
}

var serverStartTime = time.Now()

// handleHealth reports process liveness and, if a checkpoint manager is
// configured, a healthy checkpoint_store check. The state directory
// itself is not probed.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]CheckResult)
	status := "healthy"
	httpStatus := http.StatusOK

	if s.checkpoints != nil {
		checks["checkpoint_store"] = CheckResult{Status: "healthy", Message: "checkpoint manager is configured"}
	}

	health := HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Uptime:    time.Since(serverStartTime).String(),
		Checks:    checks,
		System:    getSystemInfo(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Error("Failed to encode health response", err)
	}
}

func getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		MemoryAlloc:  m.Alloc,
	}
}
