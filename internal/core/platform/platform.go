// Package platform defines the closed set of supported hosting platforms.
//
// A Platform value is a pure descriptor: endpoint, wire protocol, and the
// identity-resolution requirement. Behavior lives in the shell's provider
// package; everything here is data and lookup.
package platform

import (
	"fmt"
	"strings"
)

// TransportKind is the wire protocol a platform's API speaks.
type TransportKind string

const (
	TransportREST    TransportKind = "rest"
	TransportGraphQL TransportKind = "graphql"
)

// Platform IDs.
const (
	Vercel  = "vercel"
	Netlify = "netlify"
	Render  = "render"
	Railway = "railway"
	FlyIO   = "flyio"
)

// Platform describes one supported hosting platform. Immutable after
// construction.
type Platform struct {
	ID          string
	DisplayName string
	BaseURL     string
	Transport   TransportKind

	// RequiresIdentity marks platforms whose deploy calls need an
	// account/workspace/organization id discovered up front. Vercel and
	// Netlify scope requests to the token's account automatically.
	RequiresIdentity bool

	// SupportsStatic marks platforms that accept a direct artifact upload
	// without a linked repository.
	SupportsStatic bool

	TokenEnvVar string
	TokenURL    string
	Description string
}

// registry is the closed set, in display order.
var registry = []Platform{
	{
		ID:          Vercel,
		DisplayName: "Vercel",
		BaseURL:     "https://api.vercel.com",
		Transport:   TransportREST,

		SupportsStatic: true,

		TokenEnvVar: "VERCEL_TOKEN",
		TokenURL:    "https://vercel.com/account/settings/tokens",
		Description: "Next.js, React, Static Sites",
	},
	{
		ID:          Netlify,
		DisplayName: "Netlify",
		BaseURL:     "https://api.netlify.com/api/v1",
		Transport:   TransportREST,

		SupportsStatic: true,

		TokenEnvVar: "NETLIFY_TOKEN",
		TokenURL:    "https://app.netlify.com/user/applications/personal",
		Description: "JAMstack, Static Sites",
	},
	{
		ID:          Render,
		DisplayName: "Render",
		BaseURL:     "https://api.render.com/v1",
		Transport:   TransportREST,

		RequiresIdentity: true,

		TokenEnvVar: "RENDER_TOKEN",
		TokenURL:    "https://dashboard.render.com/u/settings?add-api-key",
		Description: "Full-stack, Docker, Web Services",
	},
	{
		ID:          Railway,
		DisplayName: "Railway",
		BaseURL:     "https://backboard.railway.com/graphql/v2",
		Transport:   TransportGraphQL,

		RequiresIdentity: true,

		TokenEnvVar: "RAILWAY_TOKEN",
		TokenURL:    "https://railway.com/account/tokens",
		Description: "Databases, Backend Services",
	},
	{
		ID:          FlyIO,
		DisplayName: "Fly.io",
		BaseURL:     "https://api.fly.io/graphql",
		Transport:   TransportGraphQL,

		RequiresIdentity: true,

		TokenEnvVar: "FLY_API_TOKEN",
		TokenURL:    "https://fly.io/user/personal_access_tokens",
		Description: "Containers, Global Apps",
	},
}

// All returns the supported platforms in stable display order.
func All() []Platform {
	out := make([]Platform, len(registry))
	copy(out, registry)
	return out
}

// IDs returns the supported platform ids in stable order.
func IDs() []string {
	ids := make([]string, len(registry))
	for i, p := range registry {
		ids[i] = p.ID
	}
	return ids
}

// Lookup finds a platform by id, case-insensitively.
func Lookup(id string) (Platform, error) {
	needle := strings.ToLower(strings.TrimSpace(id))
	for _, p := range registry {
		if p.ID == needle {
			return p, nil
		}
	}
	return Platform{}, fmt.Errorf("unsupported platform: %q (supported: %s)", id, strings.Join(IDs(), ", "))
}

// IsSupported reports whether the id names a known platform.
func IsSupported(id string) bool {
	_, err := Lookup(id)
	return err == nil
}
