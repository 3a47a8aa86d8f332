package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
)

// readinessCheck is one dependency probed by /v1/ready. A check that is not
// required reports its state without failing readiness when unconfigured.
type readinessCheck struct {
	name     string
	required bool
	probe    func(ctx context.Context) (configured bool, err error)
}

type checkResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

func readinessChecks(deps *Dependencies) []readinessCheck {
	return []readinessCheck{
		{name: "database", required: true, probe: func(ctx context.Context) (bool, error) {
			if deps.DB == nil {
				return false, nil
			}
			return true, deps.DB.Ping(ctx)
		}},
		{name: "routing_graph", probe: func(ctx context.Context) (bool, error) {
			if deps.Graph == nil {
				return false, nil
			}
			return true, deps.Graph.CheckGraph(ctx)
		}},
		{name: "cache", probe: func(ctx context.Context) (bool, error) {
			if deps.Cache == nil {
				return false, nil
			}
			return true, deps.Cache.Ping(ctx)
		}},
		{name: "nats", probe: func(context.Context) (bool, error) {
			if deps.NATS == nil {
				return false, nil
			}
			if !deps.NATS.Connected() {
				return true, errDisconnected
			}
			return true, nil
		}},
	}
}

var errDisconnected = errors.New("disconnected")

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := buildVersion()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		})
	}
}

// ReadyHandler probes the routing database, the road graph, the cache and
// NATS. Only the database is required; the others fail readiness when they
// are configured but unreachable.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := readinessChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		results := make(map[string]checkResult, len(checks))
		ready := true
		for _, chk := range checks {
			began := time.Now()
			configured, err := chk.probe(ctx)
			switch {
			case !configured:
				results[chk.name] = checkResult{Status: "not configured"}
				if chk.required {
					ready = false
				}
			case err != nil:
				results[chk.name] = checkResult{Status: "error", Error: err.Error(), LatencyMS: time.Since(began).Milliseconds()}
				ready = false
			default:
				results[chk.name] = checkResult{Status: "ok", LatencyMS: time.Since(began).Milliseconds()}
			}
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": results,
		})
	}
}
