package logger

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"movievault/internal/metrics"
)

// New returns a development logger (console, debug level) when dev is set,
// and a production JSON logger otherwise.
func New(dev bool) (*zap.SugaredLogger, error) {
	var z *zap.Logger
	var err error
	if dev {
		z, err = zap.NewDevelopmentConfig().Build()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}

// Middleware logs one line per request.
func Middleware(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw, ok := w.(*metrics.ResponseWriter)
			if !ok {
				rw = &metrics.ResponseWriter{ResponseWriter: w, Status: http.StatusOK}
			}
			next.ServeHTTP(rw, r)
			log.Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.Status,
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		})
	}
}
