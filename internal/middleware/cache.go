package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/movie-review/internal/config"
    "github.com/iliyamo/movie-review/internal/logger"
)

// FlashCookie carries a one-shot message across a redirect.  Responses to
// requests that carry it are personal and never cached.
const FlashCookie = "flash"

// ResponseCache stores rendered pages for anonymous visitors in Redis.
// Pages are keyed by route and query; Purge drops every stored page and is
// called whenever the catalog changes.  A nil *ResponseCache, or one built
// without a Redis client, does nothing.
type ResponseCache struct {
    cfg     config.CacheConfig
    rdb     *redis.Client
    methods map[string]bool
}

// NewResponseCache returns nil when caching is disabled or Redis is not
// available.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
    if !cfg.Enabled || rdb == nil {
        return nil
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return &ResponseCache{cfg: cfg, rdb: rdb, methods: cfg.MethodSet()}
}

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
        cw.buf.Write(b)
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// overflow reports whether the body grew past the capture limit.
func (cw *captureWriter) overflow() bool { return cw.limit > 0 && cw.size > cw.limit }

// cacheKey builds a stable key honoring prefix/strategy.
func (rc *ResponseCache) cacheKey(c echo.Context) string {
    r := c.Request()
    parts := []string{}
    switch strings.ToLower(rc.cfg.KeyStrategy) {
    case "route":
        parts = append(parts, "route", c.Path())
    case "method_route_query":
        parts = append(parts, "method", r.Method, "route", c.Path(), "q", r.URL.RawQuery)
    default: // "route_query"
        parts = append(parts, "route", c.Path(), "q", r.URL.RawQuery)
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%x", rc.cfg.Prefix, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    hdr := make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, hdr, bs[8+hlen:], true
}

// cacheable reports whether the response to this request may be shared.
func (rc *ResponseCache) cacheable(c echo.Context) bool {
    if !rc.methods[strings.ToUpper(c.Request().Method)] {
        return false
    }
    if CurrentUser(c) != nil {
        return false
    }
    if _, err := c.Cookie(FlashCookie); err == nil {
        return false
    }
    return true
}

// Middleware stores headers + body so clients see an identical page.  It
// must run after the session middleware.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
    if rc == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !rc.cacheable(c) {
                return next(c)
            }

            ctx := c.Request().Context()
            key := rc.cacheKey(c)

            // Try get from Redis
            if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "Set-Cookie") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, _ = c.Response().Write(body)
                    return nil
                }
            }

            // Miss: capture
            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            if cw.status != http.StatusOK || cw.overflow() || len(c.Response().Header().Values("Set-Cookie")) > 0 {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
            if err != nil {
                return nil
            }
            if err := rc.rdb.SetEx(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
                logger.FromContext(ctx).Warn().Err(err).Msg("cache: store failed")
            }
            return nil
        }
    }
}

// Purge deletes every cached page.
func (rc *ResponseCache) Purge(ctx context.Context) error {
    if rc == nil {
        return nil
    }
    iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":*", 100).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) == 0 {
        return nil
    }
    return rc.rdb.Del(ctx, keys...).Err()
}
