package api

import (
	"net/http"
	"time"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const requestIDKey = "request_id"

//requestID tags the request with the client's X-Request-ID or a fresh uuid, and echoes it back
func requestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(utils.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		ctx.Set(requestIDKey, id)
		ctx.Header(utils.RequestIDHeader, id)
		ctx.Next()
	}
}

//requestLogger logs one line per request, level by status class
func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		startTime := time.Now()

		ctx.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": ctx.GetString(requestIDKey),
			"method":     ctx.Request.Method,
			"path":       ctx.Request.URL.Path,
			"status":     ctx.Writer.Status(),
			"latency":    time.Since(startTime).String(),
			"client_ip":  ctx.ClientIP(),
		})
		if len(ctx.Errors) > 0 {
			entry = entry.WithField("error", ctx.Errors.Last().Error())
		}

		status := ctx.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Internal Server Error")
		case status >= 400:
			entry.Warn("Client Error")
		default:
			entry.Info("Request completed")
		}
	}
}

//rateLimit rejects requests above perSecond (with burst) across all clients, analysis is CPU bound
//so the limit protects the process rather than being fair between callers. perSecond <= 0 disables it.
func rateLimit(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(ctx *gin.Context) {
		if !limiter.Allow() {
			abortWithError(ctx, http.StatusTooManyRequests, "rate_limited", "too many requests, retry later")
			return
		}
		ctx.Next()
	}
}

//limitBody rejects uploads above limit bytes. A declared Content-Length is checked up front, the body reader
//itself is capped so chunked uploads stop being read once over the limit. limit <= 0 disables it.
func limitBody(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}

	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > limit {
			abortWithError(ctx, http.StatusRequestEntityTooLarge, codeBadRequest, "video too large")
			return
		}
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
		ctx.Next()
	}
}
