package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shopsathi/shopsathi-api/internal/config"
	"github.com/shopsathi/shopsathi-api/internal/metrics"
	"github.com/shopsathi/shopsathi-api/internal/model"
	"github.com/shopsathi/shopsathi-api/internal/utils"
)

const secret = "test-secret"

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, jti string) bool { return r[jti] }

// runAuth sends one request through OptionalAuth and returns the scope the
// handler saw.
func runAuth(t *testing.T, header string, revoked RevocationChecker) model.Scope {
	t.Helper()
	e := echo.New()
	var seen model.Scope
	e.GET("/probe", func(c echo.Context) error {
		seen = ScopeFrom(c)
		return c.NoContent(http.StatusNoContent)
	}, OptionalAuth(secret, revoked, zap.NewNop()))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	return seen
}

func TestOptionalAuth(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, 7, time.Hour)
	require.NoError(t, err)
	expired, err := utils.NewAccessToken(secret, 7, -time.Minute)
	require.NoError(t, err)
	foreign, err := utils.NewAccessToken("other-secret", 7, time.Hour)
	require.NoError(t, err)

	cases := map[string]struct {
		header  string
		revoked revokedSet
		want    model.Scope
	}{
		"no header":     {"", nil, model.Guest()},
		"valid token":   {"Bearer " + tok.Token, nil, model.Owner(7)},
		"not bearer":    {"Basic abc", nil, model.Guest()},
		"garbage token": {"Bearer not.a.jwt", nil, model.Guest()},
		"expired token": {"Bearer " + expired.Token, nil, model.Guest()},
		"wrong secret":  {"Bearer " + foreign.Token, nil, model.Guest()},
		"revoked token": {"Bearer " + tok.Token, revokedSet{tok.ID: true}, model.Guest()},
		"other revoked": {"Bearer " + tok.Token, revokedSet{"someone-else": true}, model.Owner(7)},
		"empty bearer":  {"Bearer ", nil, model.Guest()},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var rc RevocationChecker
			if tc.revoked != nil {
				rc = tc.revoked
			}
			assert.Equal(t, tc.want, runAuth(t, tc.header, rc))
		})
	}
}

func TestOptionalAuthExposesClaims(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, 3, time.Hour)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/probe", func(c echo.Context) error {
		cl, ok := ClaimsFrom(c)
		require.True(t, ok)
		assert.Equal(t, tok.ID, cl.ID)
		assert.Equal(t, uint64(3), cl.UserID)
		return c.NoContent(http.StatusNoContent)
	}, OptionalAuth(secret, nil, zap.NewNop()))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestScopeFromDefaultsToGuest(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.True(t, ScopeFrom(c).IsGuest())
	_, ok := ClaimsFrom(c)
	assert.False(t, ok)
}

func newCtx(method, target string, scope model.Scope) echo.Context {
	c := echo.New().NewContext(httptest.NewRequest(method, target, nil), httptest.NewRecorder())
	c.SetPath("/api/reports/dashboard-stats")
	WithScope(c, scope)
	return c
}

func TestCacheKeyIsPartitionedByScope(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "shop:cache", KeyStrategy: "route_query"}

	owner := cacheKeyFrom(cfg, newCtx(http.MethodGet, "/api/reports/dashboard-stats", model.Owner(7)))
	other := cacheKeyFrom(cfg, newCtx(http.MethodGet, "/api/reports/dashboard-stats", model.Owner(70)))
	guest := cacheKeyFrom(cfg, newCtx(http.MethodGet, "/api/reports/dashboard-stats", model.Guest()))

	assert.True(t, strings.HasPrefix(owner, "shop:cache:user:7:"))
	assert.True(t, strings.HasPrefix(guest, "shop:cache:guest:"))
	assert.NotEqual(t, owner, other)
	assert.False(t, strings.HasPrefix(other, scopePrefix(cfg, model.Owner(7))))

	again := cacheKeyFrom(cfg, newCtx(http.MethodGet, "/api/reports/dashboard-stats", model.Owner(7)))
	assert.Equal(t, owner, again)
	withQuery := cacheKeyFrom(cfg, newCtx(http.MethodGet, "/api/reports/dashboard-stats?x=1", model.Owner(7)))
	assert.NotEqual(t, owner, withQuery)
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{echo.HeaderContentType: []string{echo.MIMEApplicationJSON}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"totalProducts":3}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, echo.MIMEApplicationJSON, gotHdr.Get(echo.HeaderContentType))
	assert.Equal(t, `{"totalProducts":3}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestCaptureWriterStopsAtLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("defg"))
	assert.True(t, cw.truncated)
	assert.Equal(t, "abc", cw.buf.String())
	assert.Equal(t, "abcdefg", rec.Body.String())
}

func TestBuildRateKey(t *testing.T) {
	c := newCtx(http.MethodGet, "/api/products", model.Owner(7))
	c.Request().RemoteAddr = "10.0.0.1:1234"

	cfg := config.RateLimitConfig{Prefix: "shop:rl"}
	cfg.KeyStrategy = "ip_user"
	assert.Equal(t, "shop:rl:ip:10.0.0.1:user:7", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "shop:rl:user:7", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "shop:rl:user:7:route:GET /api/reports/dashboard-stats", buildRateKey(cfg, c))

	WithScope(c, model.Guest())
	cfg.KeyStrategy = "ip_user"
	assert.Equal(t, "shop:rl:ip:10.0.0.1:guest", buildRateKey(cfg, c))
}

func TestParseBucketResult(t *testing.T) {
	res, ok := parseBucketResult([]interface{}{int64(1), int64(41), int64(0)})
	require.True(t, ok)
	assert.True(t, res.allowed)
	assert.Equal(t, int64(41), res.remaining)

	res, ok = parseBucketResult([]interface{}{int64(0), int64(0), int64(800)})
	require.True(t, ok)
	assert.False(t, res.allowed)
	assert.Equal(t, int64(800), res.retryMs)

	_, ok = parseBucketResult("OK")
	assert.False(t, ok)
}

func TestRedisMiddlewaresPassThroughWithoutClient(t *testing.T) {
	e := echo.New()
	logger := zap.NewNop()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, logger))
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true, Methods: []string{"GET"}}, nil, logger))
	e.Use(InvalidateOnWrite(config.CacheConfig{Enabled: true}, nil, logger))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	e.Use(OptionalAuth(secret, nil, zap.NewNop()))
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(c echo.Context) error { return errors.New("db down") })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	e.ServeHTTP(rec, req)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "guest", entries[0].ContextMap()["scope"])
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(Metrics(m))
	e.GET("/api/products", func(c echo.Context) error { return c.JSON(http.StatusOK, []string{}) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
	n, err := testutil.GatherAndCount(m.Registry, "shopsathi_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
