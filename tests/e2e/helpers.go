// Package e2e exercises the deployment engine end to end against fake
// platform API servers: real adapters, real transport, real orchestrator,
// no network beyond httptest.
package e2e

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/artpar/miniploy/internal/core/identity"
	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/core/retry"
	"github.com/artpar/miniploy/internal/shell/orchestrator"
	"github.com/artpar/miniploy/internal/shell/provider"
	"github.com/artpar/miniploy/internal/shell/resolver"
	"github.com/artpar/miniploy/internal/shell/transport"
)

// engine bundles the wired deployment stack the scenarios drive.
type engine struct {
	orch  *orchestrator.Orchestrator
	cache *identity.Cache
}

// newEngine wires an orchestrator with test-friendly bounds.
func newEngine() *engine {
	cache := identity.NewCache()
	res := resolver.New(cache, nil)
	orch := orchestrator.New(res, orchestrator.Config{
		PollInterval: 5 * time.Millisecond,
		MaxPolls:     20,
		Timeout:      5 * time.Second,
		Retry: retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    4 * time.Millisecond,
			Multiplier:  2,
		},
	}, nil)
	return &engine{orch: orch, cache: cache}
}

// newProvider builds a real platform adapter pointed at a fake server.
func newProvider(t *testing.T, platformID, serverURL string) provider.Provider {
	t.Helper()

	p, err := platform.Lookup(platformID)
	require.NoError(t, err)

	prov, err := provider.New(p, transport.Config{BaseURL: serverURL}, nil)
	require.NoError(t, err)
	return prov
}
