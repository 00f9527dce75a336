// Package report ships unexpected errors to Sentry.
package report

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"
)

// Setup initialises the global Sentry client. An empty dsn leaves reporting
// disabled and returns false.
func Setup(dsn, env, service string) (bool, error) {
	if dsn == "" {
		return false, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		ServerName:  hostname(),
	}); err != nil {
		return false, fmt.Errorf("sentry init: %w", err)
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("service", service)
		scope.SetTag("go_version", runtime.Version())
	})
	return true, nil
}

// Flush waits briefly for buffered events before shutdown.
func Flush() {
	sentry.Flush(2 * time.Second)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
