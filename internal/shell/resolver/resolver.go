// Package resolver performs platform identity discovery with memoization.
//
// Discovery calls count against the same rate limits as deploy calls, so a
// resolved owner/team/organization id is cached for the process lifetime,
// keyed by platform and credential fingerprint. Changing the token changes
// the fingerprint and forces a fresh discovery call.
package resolver

import (
	"context"
	"log/slog"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/core/identity"
	"github.com/artpar/miniploy/internal/shell/provider"
)

// Resolver memoizes provider identity discovery. Safe for concurrent use.
type Resolver struct {
	cache  *identity.Cache
	logger *slog.Logger
}

// New creates a resolver backed by the given cache. A nil cache gets a
// fresh one.
func New(cache *identity.Cache, logger *slog.Logger) *Resolver {
	if cache == nil {
		cache = identity.NewCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cache:  cache,
		logger: logger.With("component", "resolver"),
	}
}

// Resolve returns the account identifier the platform requires before
// deployment creation. Platforms that auto-scope requests to the token's
// account resolve to an empty identifier without a network call.
func (r *Resolver) Resolve(ctx context.Context, prov provider.Provider, cred domain.Credential) (string, error) {
	p := prov.Platform()
	if !p.RequiresIdentity {
		return "", nil
	}

	key := identity.Key{
		PlatformID:  p.ID,
		Fingerprint: identity.Fingerprint(cred.Token),
	}

	if id, ok := r.cache.Get(key); ok {
		r.logger.Debug("identity cache hit",
			"platform", p.ID,
			"fingerprint", key.Fingerprint,
		)
		return id, nil
	}

	id, err := prov.ResolveIdentity(ctx, cred)
	if err != nil {
		return "", err
	}

	r.cache.Put(key, id)
	r.logger.Debug("identity resolved",
		"platform", p.ID,
		"fingerprint", key.Fingerprint,
	)
	return id, nil
}
