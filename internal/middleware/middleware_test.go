package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/iliyamo/movie-review/internal/config"
	"github.com/iliyamo/movie-review/internal/logger"
	"github.com/iliyamo/movie-review/internal/model"
)

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/login/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/login/")

	tests := []struct {
		strategy string
		want     string
	}{
		{strategy: "ip", want: "rl:ip:10.0.0.7"},
		{strategy: "user", want: "rl:user:guest"},
		{strategy: "ip_route", want: "rl:ip:10.0.0.7:route:POST /login/"},
		{strategy: "", want: "rl:ip:10.0.0.7:user:guest:route:POST /login/"},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}, c)
			assert.Equal(t, tt.want, got)
		})
	}

	setCurrentUser(c, &model.User{ID: 42})
	assert.Equal(t, "rl:user:42", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
}

func TestParseBucketResult(t *testing.T) {
	allowed, remaining, retry, ok := parseBucketResult([]interface{}{int64(1), int64(4), int64(0)})
	assert.True(t, ok)
	assert.True(t, allowed)
	assert.Equal(t, int64(4), remaining)
	assert.Equal(t, int64(0), retry)

	allowed, _, retry, ok = parseBucketResult([]interface{}{int64(0), int64(0), int64(2500)})
	assert.True(t, ok)
	assert.False(t, allowed)
	assert.Equal(t, int64(2500), retry)

	_, _, _, ok = parseBucketResult("nope")
	assert.False(t, ok)
}

func TestTokenBucket_PassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.POST("/login/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestResponseCache_DisabledIsNil(t *testing.T) {
	assert.Nil(t, NewResponseCache(config.CacheConfig{Enabled: true}, nil))
	assert.Nil(t, NewResponseCache(config.CacheConfig{Enabled: false}, nil))

	var rc *ResponseCache
	assert.NoError(t, rc.Purge(context.Background()))

	e := echo.New()
	e.GET("/movie_list/", func(c echo.Context) error { return c.String(http.StatusOK, "list") }, rc.Middleware())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movie_list/", nil))
	assert.Equal(t, "list", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"text/html; charset=UTF-8"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte("<h1>Movies</h1>"))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, "<h1>Movies</h1>", string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}

func TestResponseCache_Cacheable(t *testing.T) {
	rc := &ResponseCache{cfg: config.CacheConfig{Prefix: "cache"}, methods: map[string]bool{"GET": true}}
	e := echo.New()

	newCtx := func(method string, cookies ...*http.Cookie) echo.Context {
		req := httptest.NewRequest(method, "/movie_list/", nil)
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		return e.NewContext(req, httptest.NewRecorder())
	}

	assert.True(t, rc.cacheable(newCtx(http.MethodGet)))
	assert.False(t, rc.cacheable(newCtx(http.MethodPost)))
	assert.False(t, rc.cacheable(newCtx(http.MethodGet, &http.Cookie{Name: FlashCookie, Value: "hi"})))

	c := newCtx(http.MethodGet)
	setCurrentUser(c, &model.User{ID: 1})
	assert.False(t, rc.cacheable(c))
}

func TestResponseCache_KeyIncludesQuery(t *testing.T) {
	rc := &ResponseCache{cfg: config.CacheConfig{Prefix: "cache"}}
	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/search_movies/")
		return rc.cacheKey(c)
	}
	assert.Equal(t, key("/search_movies/?q=dune"), key("/search_movies/?q=dune"))
	assert.NotEqual(t, key("/search_movies/?q=dune"), key("/search_movies/?q=alien"))
	assert.Regexp(t, "^cache:[0-9a-f]{40}$", key("/search_movies/"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := &logger.Logger{Logger: zerolog.New(&buf)}

	e := echo.New()
	e.Use(echomw.RequestID(), RequestLogger(log))
	e.GET("/ok", func(c echo.Context) error {
		logger.FromContext(c.Request().Context()).Info().Msg("inside")
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	rid := rec.Header().Get(echo.HeaderXRequestID)
	require.NotEmpty(t, rid)
	assert.Contains(t, buf.String(), `"message":"inside"`)
	assert.Contains(t, buf.String(), `"request_id":"`+rid+`"`)
	assert.Contains(t, buf.String(), `"status":204`)

	buf.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"status":500`)

	// request fields stay on the per-request child
	buf.Reset()
	log.Info().Msg("after")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestTracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	e := echo.New()
	e.Use(Tracing())
	e.GET("/movie/:id/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movie/7/", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /movie/:id/", spans[0].Name())
}
