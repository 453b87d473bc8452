package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-farming/internal/config"
	"github.com/iliyamo/smart-farming/internal/utils"
)

const testSecret = "test-secret"

// whoami echoes what JWTAuth stored in the context.
func whoami(c echo.Context) error {
	id, ok := UserID(c)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "ok": ok, "role": Role(c)})
}

func serve(e *echo.Echo, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(testSecret))

	good, err := utils.NewAccessToken(testSecret, 7, "FARMER", 5)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	forged, err := utils.NewAccessToken("other", 7, "ADMIN", 5)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}

	cases := []struct {
		name   string
		bearer string
		status int
		body   string
	}{
		{"valid token", good.Token, http.StatusOK, `"role":"FARMER"`},
		{"missing header", "", http.StatusUnauthorized, `"error":"unauthorized"`},
		{"wrong key", forged.Token, http.StatusUnauthorized, "invalid or expired token"},
		{"garbage", "abc", http.StatusUnauthorized, "invalid or expired token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/me", tc.bearer)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), tc.body) {
				t.Errorf("body = %s, want it to contain %s", rec.Body, tc.body)
			}
		})
	}

	rec := serve(e, http.MethodGet, "/me", good.Token)
	if !strings.Contains(rec.Body.String(), `"id":7`) || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("body = %s, want user id 7", rec.Body)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(testSecret), RequireRole("ADMIN"))

	for role, want := range map[string]int{"ADMIN": http.StatusOK, "FARMER": http.StatusForbidden} {
		tok, err := utils.NewAccessToken(testSecret, 1, role, 5)
		if err != nil {
			t.Fatalf("NewAccessToken() error = %v", err)
		}
		if rec := serve(e, http.MethodGet, "/admin", tok.Token); rec.Code != want {
			t.Errorf("role %s: status = %d, want %d", role, rec.Code, want)
		}
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/farm-records", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/farm-records")

	cases := map[string]string{
		"ip":         "rl:ip:10.0.0.1",
		"user":       "rl:user:anon",
		"user_route": "rl:user:anon:route:GET /v1/farm-records",
		"":           "rl:ip:10.0.0.1:user:anon:route:GET /v1/farm-records",
	}
	for strategy, want := range cases {
		got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		if got != want {
			t.Errorf("strategy %q: key = %q, want %q", strategy, got, want)
		}
	}

	c.Set(ctxUserID, uint64(12))
	if got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c); got != "rl:user:12" {
		t.Errorf("authenticated key = %q, want rl:user:12", got)
	}
}

func TestParseBucketResult(t *testing.T) {
	res, ok := parseBucketResult([]interface{}{int64(0), int64(0), int64(1500)})
	if !ok || res.allowed || res.retryMs != 1500 {
		t.Errorf("parseBucketResult() = %+v, %v", res, ok)
	}
	if retryAfterSeconds(res.retryMs) != 2 {
		t.Errorf("retryAfterSeconds(1500) = %d, want 2", retryAfterSeconds(res.retryMs))
	}
	if _, ok := parseBucketResult("nope"); ok {
		t.Error("parseBucketResult(string) ok = true")
	}
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	e := echo.New()
	cache := NewResponseCache(config.CacheConfig{Enabled: true}, nil)
	e.GET("/p", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil), cache.Middleware())

	rec := serve(e, http.MethodGet, "/p", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("response = %d %q, want 200 ok", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Cache") != "" {
		t.Error("X-Cache set with caching disabled")
	}
	if err := cache.Invalidate(context.Background()); err != nil {
		t.Errorf("Invalidate() on nil cache error = %v", err)
	}
}

func TestCachePayloadEncoding(t *testing.T) {
	hdr := http.Header{echo.HeaderContentType: {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"items":[]}`))
	if err != nil {
		t.Fatalf("encodePayload() error = %v", err)
	}
	status, gotHdr, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || gotHdr.Get(echo.HeaderContentType) != "application/json" || string(body) != `{"items":[]}` {
		t.Errorf("decodePayload() = %d %v %q %v", status, gotHdr, body, ok)
	}
	if _, _, _, ok := decodePayload(bs[:5]); ok {
		t.Error("decodePayload(short) ok = true")
	}
}

func TestCacheKeySeparatesPathParams(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "c"}
	key := func(path string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
		c.SetPath("/v1/products/:id")
		return cacheKeyFrom(cfg, c)
	}
	if key("/v1/products/1") == key("/v1/products/2") {
		t.Error("different product ids share a cache key")
	}
	if !strings.HasPrefix(key("/v1/products/1"), "c:") {
		t.Errorf("key %q lacks prefix", key("/v1/products/1"))
	}
}
