package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const requestIDHeader = "X-Request-ID"

// requestLogging attaches a request id to the request context so every log line carries it.
func requestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		ctx := logging.WithFields(c.Request.Context(), map[string]any{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		logging.NewLogger(ctx).Infof("request completed status=%d latency=%s", c.Writer.Status(), time.Since(start))
	}
}

func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log := logging.NewLogger(c.Request.Context())
				log.Errorf("panic: %v", r)
				utils.PrintStack("panic", log)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

func newRateLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// rateLimit limits requests per client IP.
func rateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limit, err := l.Get(c.Request.Context(), ip)
		if err != nil {
			logging.NewLogger(c.Request.Context()).Errorf("error: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(limit.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(limit.Reset, 10))
		if limit.Reached {
			logging.NewLogger(c.Request.Context()).Warnf("rate limit exceeded ip=%s limit=%d", ip, limit.Limit)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			break
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	if len(cfg.AllowOrigins) == 0 && !cfg.AllowAllOrigins {
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}

// limitBody caps request bodies; reads past the limit fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
