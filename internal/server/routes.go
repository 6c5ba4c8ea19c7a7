package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func addRoutes(r chi.Router, logger *slog.Logger, session *Session, opts Options) {
	r.Get("/healthz", handleHealth(logger, opts.Store))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/game", func(r chi.Router) {
		r.Get("/", handleGameState(session))
		r.Get("/choices", handleChoices(session))
		r.Post("/mode", handleSetMode(session))
		r.Post("/players/{id}/name", handleSetPlayerName(session))
		r.Post("/start", handleStart(session))
		r.Post("/guess", handleGuess(session))
		r.Post("/end-turn", handleEndTurn(session))
		r.Post("/reset", handleReset(session))
	})

	if opts.PhotosDir != "" {
		if info, err := os.Stat(opts.PhotosDir); err == nil && info.IsDir() {
			logger.Info("serving photos", "dir", opts.PhotosDir)
			r.Handle("/photos/*", http.StripPrefix("/photos/", http.FileServer(http.Dir(opts.PhotosDir))))
		} else {
			logger.Warn("photos directory not found, not serving photos", "dir", opts.PhotosDir)
		}
	}
}
