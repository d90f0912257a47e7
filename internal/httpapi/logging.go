package httpapi

import (
	"net/http"
	"time"

	"nukewar/internal/app/results"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// requestLogger logs one line per request with its id, status and latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		entry := s.logger.WithFields(logrus.Fields{
			"request_id":  middleware.GetReqID(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		})
		if ww.Status() >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Info("request")
	})
}

type logrusLogger struct {
	l logrus.FieldLogger
}

// NewLogger adapts a logrus logger to the printf-style logger used by the
// results package.
func NewLogger(l logrus.FieldLogger) results.Logger {
	return logrusLogger{l: l}
}

func (a logrusLogger) Info(format string, v ...interface{})  { a.l.Infof(format, v...) }
func (a logrusLogger) Warn(format string, v ...interface{})  { a.l.Warnf(format, v...) }
func (a logrusLogger) Error(format string, v ...interface{}) { a.l.Errorf(format, v...) }
