package domain

// =============================================================================
// Credentials
// =============================================================================

// Credential is a platform API token. The engine only ever reads it: tokens
// are never logged and never persisted by the core. Anything user-visible
// goes through MaskToken.
type Credential struct {
	PlatformID string
	Token      string
}

// Empty reports whether no token is present.
func (c Credential) Empty() bool {
	return c.Token == ""
}

// MaskToken renders a token safe for display, keeping just enough of the
// ends to recognize it.
func MaskToken(token string) string {
	if len(token) > 14 {
		return token[:10] + "..." + token[len(token)-4:]
	}
	if token == "" {
		return ""
	}
	return "***"
}
