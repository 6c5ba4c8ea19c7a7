package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/choiway/photoguess/internal/storage"
)

func handleHealth(logger *slog.Logger, store storage.Store) http.HandlerFunc {
	type result struct {
		Status string `json:"status"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]result{
			"storage": {Status: "ok"},
		}
		status := http.StatusOK

		if store == nil {
			checks["storage"] = result{Status: "disabled"}
		} else if err := store.Ping(ctx); err != nil {
			logger.Error("health check failed", "name", "storage", "error", err)
			checks["storage"] = result{Status: "error"}
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, checks)
	}
}
