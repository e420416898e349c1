// Package gologger routes the escrow service's glog logging surface into
// the go-job runtime so queue workers report through the same sink as the
// ledger and decider.
package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// DefaultComponent names the logging component when the caller does not.
const DefaultComponent = "escrow.jobs"

// Resolve picks the logging sink for an escrow component with
// provider > logger > nop precedence. An empty component falls back to
// DefaultComponent.
func Resolve(component string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	if strings.TrimSpace(component) == "" {
		component = DefaultComponent
	}
	return glog.Resolve(component, provider, logger)
}

// ToJobProvider wraps a glog provider for the go-job runtime. A nil
// provider stays nil so go-job applies its own fallback.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger wraps a glog logger for the go-job runtime.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves the escrow sink and returns it twice: in glog form
// for the ledger side and in go-job form for the worker side, so one
// resolution feeds both halves of a queue deployment.
func ResolveForJob(
	component string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(component, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
