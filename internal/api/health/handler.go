package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"

	"atlas/internal/adapters/redis"
	"atlas/pkg/logger"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"

	readinessTimeout = 5 * time.Second
	healthTimeout    = 10 * time.Second
)

// Handler serves the liveness, readiness and detailed health probes.
type Handler struct {
	log         *logger.Logger
	postgres    *sqlx.DB
	clickhouse  driver.Conn
	redis       *redis.Client
	startTime   time.Time
	serviceName string
	version     string
}

func New(log *logger.Logger, postgres *sqlx.DB, clickhouse driver.Conn, redisClient *redis.Client, serviceName, version string) *Handler {
	return &Handler{
		log:         log,
		postgres:    postgres,
		clickhouse:  clickhouse,
		redis:       redisClient,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// Report is the JSON body returned by the readiness and health probes.
type Report struct {
	Status    string                     `json:"status"`
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth describes one dependency's probe result.
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness answers 200 whenever the process is up. Kubernetes
// liveness probe.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeReport(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReadiness answers 503 if any dependency is down. Kubernetes
// readiness probe.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	report, healthy, total := h.probe(ctx)

	code := http.StatusOK
	if healthy < total {
		report.Status = statusUnhealthy
		code = http.StatusServiceUnavailable
		h.log.Warnw("Readiness check failed", "checks", report.Checks)
	}
	writeReport(w, code, report)
}

// HandleHealth returns the detailed health report. Degraded (some but
// not all components down) still answers 200 so the pod is not
// restarted.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	report, healthy, total := h.probe(ctx)

	code := http.StatusOK
	switch {
	case healthy == 0:
		report.Status = statusUnhealthy
		code = http.StatusServiceUnavailable
	case healthy < total:
		report.Status = statusDegraded
	}
	writeReport(w, code, report)
}

// probe pings every dependency and assembles the report.
func (h *Handler) probe(ctx context.Context) (Report, int, int) {
	report := Report{
		Status:    statusHealthy,
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    make(map[string]ComponentHealth),
	}

	healthy, total := 0, 0
	check := func(name string, ping func(context.Context) error) {
		total++
		start := time.Now()
		err := ping(ctx)
		elapsed := time.Since(start)

		if err != nil {
			h.log.Warnw("Component health check failed", "component", name, "error", err, "elapsed", elapsed)
			report.Checks[name] = ComponentHealth{
				Status:       statusUnhealthy,
				ResponseTime: elapsed.String(),
				Error:        err.Error(),
			}
			return
		}
		healthy++
		report.Checks[name] = ComponentHealth{
			Status:       statusHealthy,
			ResponseTime: elapsed.String(),
		}
	}

	check("postgres", h.postgres.PingContext)
	check("clickhouse", h.clickhouse.Ping)
	check("redis", h.redis.Health)

	return report, healthy, total
}

func writeReport(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
