package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/handler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthFunc reports whether the event store is reachable
type HealthFunc func(ctx context.Context) error

// New wires the HTTP routes. ruleHandler and health may be nil.
func New(reportHandler *handler.ReportHandler, ruleHandler *handler.CategoryRuleHandler, health HealthFunc, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		resp := map[string]string{"status": "ok"}
		status := http.StatusOK
		if health != nil {
			if err := health(r.Context()); err != nil {
				resp["status"] = "degraded"
				resp["event_store"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				resp["event_store"] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/v1/summary", reportHandler.Summary)

	if ruleHandler != nil {
		mux.HandleFunc("/api/v1/categories", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				ruleHandler.CreateRule(w, r)
			case http.MethodGet:
				if r.URL.Query().Get("id") != "" {
					ruleHandler.GetRule(w, r)
				} else {
					ruleHandler.ListRules(w, r)
				}
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
		mux.HandleFunc("/api/v1/categories/update", ruleHandler.UpdateRule)
		mux.HandleFunc("/api/v1/categories/delete", ruleHandler.DeleteRule)
	}

	// Logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
