package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrack/waste-admin/internal/config"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{Enabled: true, TTL: 30 * time.Second, Prefix: "stats", MaxBodyBytes: 1 << 20}
}

func newCacheBackend(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestStatsCacheMissThenHit(t *testing.T) {
	rdb := newCacheBackend(t)
	cache := StatsCache(testCacheConfig(), rdb)

	calls := 0
	handler := cache(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"totalUsers": 3}})
	})

	c, rec := newTestContext(t, http.MethodGet, "/v1/stats/admin", "")
	c.SetPath("/v1/stats/admin")
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)
	first := rec.Body.String()

	c2, rec2 := newTestContext(t, http.MethodGet, "/v1/stats/admin", "")
	c2.SetPath("/v1/stats/admin")
	require.NoError(t, handler(c2))
	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "HIT", rec2.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls, "handler must not run on a hit")
	assert.Equal(t, first, rec2.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, rec2.Header().Get(echo.HeaderContentType))
}

func TestStatsCacheKeyedByPathAndQuery(t *testing.T) {
	rdb := newCacheBackend(t)
	cache := StatsCache(testCacheConfig(), rdb)

	calls := 0
	handler := cache(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})

	for _, target := range []string{"/v1/stats/admin", "/v1/stats/admin?detail=1"} {
		c, _ := newTestContext(t, http.MethodGet, target, "")
		c.SetPath("/v1/stats/admin")
		require.NoError(t, handler(c))
	}
	assert.Equal(t, 2, calls, "different query strings must not share an entry")
}

func TestStatsCacheSeparatesInstitutions(t *testing.T) {
	rdb := newCacheBackend(t)
	cache := StatsCache(testCacheConfig(), rdb)

	// Two institutions share one route template; each must get its own
	// cache entry keyed by the concrete URL.
	handler := cache(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"institutionId": c.Param("institutionId")})
	})

	get := func(id string) (*httptest.ResponseRecorder, string) {
		c, rec := newTestContext(t, http.MethodGet, "/v1/stats/institution/"+id, "")
		c.SetPath("/v1/stats/institution/:institutionId")
		c.SetParamNames("institutionId")
		c.SetParamValues(id)
		require.NoError(t, handler(c))
		return rec, rec.Body.String()
	}

	rec1, body1 := get("1")
	assert.Equal(t, "MISS", rec1.Header().Get("X-Cache"))
	assert.Contains(t, body1, `"institutionId":"1"`)

	rec2, body2 := get("2")
	assert.Equal(t, "MISS", rec2.Header().Get("X-Cache"), "second institution must not hit the first one's entry")
	assert.Contains(t, body2, `"institutionId":"2"`)

	rec1b, body1b := get("1")
	assert.Equal(t, "HIT", rec1b.Header().Get("X-Cache"))
	assert.Contains(t, body1b, `"institutionId":"1"`)
}

func TestStatsCacheSkipsErrors(t *testing.T) {
	rdb := newCacheBackend(t)
	cache := StatsCache(testCacheConfig(), rdb)

	calls := 0
	handler := cache(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "institution not found"})
	})

	for i := 0; i < 2; i++ {
		c, rec := newTestContext(t, http.MethodGet, "/v1/stats/institution/9", "")
		c.SetPath("/v1/stats/institution/:institutionId")
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls, "non-200 responses must never be cached")
}

func TestStatsCacheDisabledPassThrough(t *testing.T) {
	cfg := testCacheConfig()
	cfg.Enabled = false
	cache := StatsCache(cfg, nil)

	handler := cache(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})

	c, rec := newTestContext(t, http.MethodGet, "/v1/stats/admin", "")
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestStatsCacheIgnoresNonGet(t *testing.T) {
	rdb := newCacheBackend(t)
	cache := StatsCache(testCacheConfig(), rdb)

	calls := 0
	handler := cache(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})

	for i := 0; i < 2; i++ {
		c, rec := newTestContext(t, http.MethodPost, "/v1/stats/admin", "")
		c.SetPath("/v1/stats/admin")
		require.NoError(t, handler(c))
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

func TestEncodeDecodeCached(t *testing.T) {
	hdr := http.Header{"Content-Type": {echo.MIMEApplicationJSON}}
	payload, err := encodeCached(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodeCached(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, echo.MIMEApplicationJSON, gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodeCached([]byte("short"))
	assert.False(t, ok)
}
