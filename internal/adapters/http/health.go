package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": "dev",
		})
	}
}

// probe reports a backend's state and whether it counts as ready.
type probe func(ctx context.Context) (string, bool)

func pingProbe(p Pinger) probe {
	return func(ctx context.Context) (string, bool) {
		if p == nil {
			return "not configured", true
		}
		if err := p.Ping(ctx); err != nil {
			return "error: " + err.Error(), false
		}
		return "ok", true
	}
}

func readinessProbes(deps *Dependencies) map[string]probe {
	return map[string]probe{
		"catalog": func(context.Context) (string, bool) {
			if deps.Stations == nil || deps.Stations.Count() == 0 {
				return "empty", false
			}
			return fmt.Sprintf("ok (%d stations)", deps.Stations.Count()), true
		},
		"nats": func(context.Context) (string, bool) {
			switch {
			case deps.NATS == nil:
				return "not configured", true
			case deps.NATS.Connected():
				return "ok", true
			default:
				return "disconnected", false
			}
		},
		"database": pingProbe(deps.DB),
		"cache":    pingProbe(deps.Cache),
	}
}

// ReadyHandler checks the catalog and every configured backend. Backends
// that are not configured do not fail readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	probes := readinessProbes(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(probes))
		ready := true
		for name, run := range probes {
			state, ok := run(ctx)
			checks[name] = state
			ready = ready && ok
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
