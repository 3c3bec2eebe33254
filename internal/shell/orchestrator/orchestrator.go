// Package orchestrator drives one deployment from request to terminal state.
//
// The orchestrator owns the deploy protocol shared by every platform:
// resolve identity (a hard precondition where required), create the
// deployment with bounded retry, then poll strictly sequentially until the
// platform reports live or failed. Adapters classify failures; the
// orchestrator reacts to the classified kind only.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/retry"
	"github.com/artpar/miniploy/internal/shell/provider"
	"github.com/artpar/miniploy/internal/shell/resolver"
)

// =============================================================================
// Configuration
// =============================================================================

// Config bounds the deploy protocol. The defaults are the documented
// constants for the poll and backoff schedules.
type Config struct {
	// PollInterval is the wait between consecutive status polls.
	PollInterval time.Duration

	// MaxPolls bounds the poll loop. Exhaustion is a timeout failure
	// naming the last observed platform state.
	MaxPolls int

	// Timeout bounds one whole deployment, all retries and polls included.
	Timeout time.Duration

	// Retry is the backoff schedule for rate-limited and transient
	// failures of individual remote calls.
	Retry retry.Policy
}

// DefaultConfig returns the documented deploy bounds: 2s poll interval,
// 30 polls, 5m overall deadline.
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
		MaxPolls:     30,
		Timeout:      5 * time.Minute,
		Retry:        retry.DefaultPolicy(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.MaxPolls <= 0 {
		c.MaxPolls = d.MaxPolls
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry = d.Retry
	}
	return c
}

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator runs deployments. Safe for concurrent use; independent
// deployments share only the resolver's identity cache.
type Orchestrator struct {
	resolver *resolver.Resolver
	cfg      Config
	logger   *slog.Logger
}

// New creates an orchestrator. A nil resolver gets a fresh one with its own
// cache.
func New(res *resolver.Resolver, cfg Config, logger *slog.Logger) *Orchestrator {
	if res == nil {
		res = resolver.New(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		resolver: res,
		cfg:      cfg.withDefaults(),
		logger:   logger.With("component", "orchestrator"),
	}
}

// Deploy runs the full protocol for one request and always returns a
// terminal result; classified failures become a Failed result, caller
// cancellation a Canceled one. Only programming-contract violations (an
// illegal state transition) surface as an error.
func (o *Orchestrator) Deploy(ctx context.Context, prov provider.Provider, cred domain.Credential, req provider.DeployRequest) *domain.Result {
	p := prov.Platform()
	d := domain.NewDeployment(p.ID, req.ProjectName)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	o.logger.Info("deployment started",
		"deployment_id", d.ID,
		"platform", p.ID,
		"name", req.ProjectName,
	)

	if p.RequiresIdentity {
		d.Transition(domain.StatusResolvingIdentity)

		id, err := withRetry(ctx, o, "resolve identity", func() (string, error) {
			return o.resolver.Resolve(ctx, prov, cred)
		})
		if err != nil {
			return o.terminate(d, start, err)
		}
		req.Identity = id
	}

	d.Transition(domain.StatusUploading)

	created, err := withRetry(ctx, o, "create deployment", func() (*provider.DeployResult, error) {
		return prov.CreateDeployment(ctx, cred, req)
	})
	if err != nil {
		return o.terminate(d, start, err)
	}
	d.PlatformDeploymentID = created.DeploymentID
	d.URL = created.URL

	d.Transition(domain.StatusBuilding)

	if created.DeploymentID == "" {
		// Nothing to poll: the create call was synchronous and final.
		d.Transition(domain.StatusLive)
		return o.finish(d, start)
	}

	return o.pollUntilTerminal(ctx, prov, cred, d, start)
}

// Redeploy triggers a new deployment of an existing project and polls it to
// a terminal state. This is the deploy path of a configured project.
func (o *Orchestrator) Redeploy(ctx context.Context, prov provider.Provider, cred domain.Credential, projectID string) *domain.Result {
	p := prov.Platform()
	d := domain.NewDeployment(p.ID, projectID)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	d.Transition(domain.StatusUploading)

	deploymentID, err := withRetry(ctx, o, "trigger deploy", func() (string, error) {
		return prov.TriggerDeploy(ctx, cred, projectID)
	})
	if err != nil {
		return o.terminate(d, start, err)
	}
	d.PlatformDeploymentID = deploymentID

	d.Transition(domain.StatusBuilding)
	return o.pollUntilTerminal(ctx, prov, cred, d, start)
}

// =============================================================================
// Poll Loop
// =============================================================================

// pollUntilTerminal polls strictly sequentially: the next poll is only
// issued after the previous one returned and the interval elapsed.
func (o *Orchestrator) pollUntilTerminal(ctx context.Context, prov provider.Provider, cred domain.Credential, d *domain.Deployment, start time.Time) *domain.Result {
	lastState := "unknown"

	for attempt := 1; attempt <= o.cfg.MaxPolls; attempt++ {
		status, err := withRetry(ctx, o, "poll status", func() (*provider.Status, error) {
			return prov.PollStatus(ctx, cred, d.PlatformDeploymentID)
		})
		if err != nil {
			return o.terminate(d, start, err)
		}

		if status.RawState != "" {
			lastState = status.RawState
		}
		if status.URL != "" {
			d.URL = status.URL
		}

		o.logger.Debug("poll",
			"deployment_id", d.ID,
			"attempt", attempt,
			"state", status.RawState,
		)

		switch status.Phase {
		case provider.PhaseLive:
			d.Transition(domain.StatusLive)
			return o.finish(d, start)
		case provider.PhaseFailed:
			detail := status.Detail
			if detail == "" {
				detail = fmt.Sprintf("deployment entered state %s", status.RawState)
			}
			d.Fail(detail)
			return o.finish(d, start)
		}

		if err := o.sleep(ctx); err != nil {
			return o.terminate(d, start, err)
		}
	}

	d.Fail(fmt.Sprintf("%v: still %s after %d polls", domain.ErrTimeout, lastState, o.cfg.MaxPolls))
	return o.finish(d, start)
}

// sleep waits one poll interval, honoring cancellation.
func (o *Orchestrator) sleep(ctx context.Context) error {
	timer := time.NewTimer(o.cfg.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// =============================================================================
// Retry
// =============================================================================

// withRetry runs a remote call under the backoff policy. Only classified
// retryable kinds are retried; everything else surfaces immediately.
func withRetry[T any](ctx context.Context, o *Orchestrator, op string, call func() (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		v, err := call()
		if err == nil {
			return v, nil
		}
		if !domain.Retryable(err) || o.cfg.Retry.Exhausted(attempt) {
			return zero, err
		}

		delay := o.cfg.Retry.Delay(attempt)
		o.logger.Warn("retrying",
			"op", op,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// =============================================================================
// Termination
// =============================================================================

// terminate maps a protocol failure onto the right terminal state: caller
// cancellation becomes Canceled, the engine's own deadline a timeout
// failure, and everything else a Failed result carrying the most specific
// detail available.
func (o *Orchestrator) terminate(d *domain.Deployment, start time.Time, err error) *domain.Result {
	switch {
	case errors.Is(err, context.Canceled):
		d.Cancel()
	case errors.Is(err, context.DeadlineExceeded):
		d.Fail(fmt.Sprintf("%v after %s", domain.ErrTimeout, time.Since(start).Round(time.Second)))
	default:
		d.Fail(errorDetail(err))
	}
	return o.finish(d, start)
}

func (o *Orchestrator) finish(d *domain.Deployment, start time.Time) *domain.Result {
	result := d.Result(time.Since(start))
	o.logger.Info("deployment finished",
		"deployment_id", d.ID,
		"status", result.Status,
		"duration", result.Duration,
	)
	return result
}

// errorDetail prefers the platform's own message over generic wrapping.
func errorDetail(err error) string {
	var platformErr *domain.PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Error()
	}
	return err.Error()
}
