package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GeocodeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoguess_geocode_requests_total",
			Help: "Reverse geocoding lookups by result",
		},
		[]string{"result"},
	)
	ManifestFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoguess_manifest_files_total",
			Help: "Files seen by the manifest builder by how their metadata was obtained",
		},
		[]string{"source"},
	)
	Guesses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoguess_guesses_total",
			Help: "Guesses submitted by mode and correctness",
		},
		[]string{"mode", "correct"},
	)
	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoguess_games_finished_total",
			Help: "Games that reached a terminal phase",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(GeocodeRequests)
	prometheus.MustRegister(ManifestFiles)
	prometheus.MustRegister(Guesses)
	prometheus.MustRegister(GamesFinished)
}
