package provider

import (
	"fmt"
	"log/slog"

	"github.com/artpar/miniploy/internal/core/platform"
	"github.com/artpar/miniploy/internal/shell/transport"
)

// New creates the adapter for a platform descriptor. The transport config
// carries the HTTP timeout and, in tests, an overriding base URL.
func New(p platform.Platform, cfg transport.Config, logger *slog.Logger) (Provider, error) {
	switch p.ID {
	case platform.Vercel:
		return NewVercelProvider(p, cfg, logger), nil
	case platform.Netlify:
		return NewNetlifyProvider(p, cfg, logger), nil
	case platform.Render:
		return NewRenderProvider(p, cfg, logger), nil
	case platform.Railway:
		return NewRailwayProvider(p, cfg, logger), nil
	case platform.FlyIO:
		return NewFlyProvider(p, cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", p.ID)
	}
}

// NewByID is a convenience wrapper resolving the descriptor first.
func NewByID(platformID string, cfg transport.Config, logger *slog.Logger) (Provider, error) {
	p, err := platform.Lookup(platformID)
	if err != nil {
		return nil, err
	}
	return New(p, cfg, logger)
}
