package identity

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("render_token_123")
	b := Fingerprint("render_token_123")

	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestFingerprint_DistinctTokens(t *testing.T) {
	a := Fingerprint("token-one")
	b := Fingerprint("token-two")

	assert.NotEqual(t, a, b)
}

func TestFingerprint_DoesNotContainToken(t *testing.T) {
	token := "super-secret-token"
	fp := Fingerprint(token)

	assert.NotContains(t, fp, token)
}

func TestCache_GetPut(t *testing.T) {
	c := NewCache()
	key := Key{PlatformID: "render", Fingerprint: Fingerprint("tok")}

	_, ok := c.Get(key)
	require.False(t, ok)

	c.Put(key, "owner-123")

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "owner-123", got)
}

func TestCache_DistinctKeys(t *testing.T) {
	c := NewCache()

	c.Put(Key{PlatformID: "render", Fingerprint: Fingerprint("tok")}, "owner-1")
	c.Put(Key{PlatformID: "railway", Fingerprint: Fingerprint("tok")}, "team-1")
	c.Put(Key{PlatformID: "render", Fingerprint: Fingerprint("other")}, "owner-2")

	assert.Equal(t, 3, c.Len())

	got, ok := c.Get(Key{PlatformID: "render", Fingerprint: Fingerprint("tok")})
	require.True(t, ok)
	assert.Equal(t, "owner-1", got)
}

func TestCache_PutReplaces(t *testing.T) {
	c := NewCache()
	key := Key{PlatformID: "flyio", Fingerprint: Fingerprint("tok")}

	c.Put(key, "org-old")
	c.Put(key, "org-new")

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "org-new", got)
	assert.Equal(t, 1, c.Len())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := Key{PlatformID: "render", Fingerprint: Fingerprint(fmt.Sprintf("tok-%d", n))}
			c.Put(key, fmt.Sprintf("owner-%d", n))
			_, _ = c.Get(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, c.Len())
}
