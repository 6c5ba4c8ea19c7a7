package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRegistered(t *testing.T) {
	for _, c := range []prometheus.Collector{GeocodeRequests, ManifestFiles, Guesses, GamesFinished} {
		if err := prometheus.Register(c); err == nil {
			t.Fatal("collector was not registered by init")
		}
	}
}

func TestGuessesCounter(t *testing.T) {
	c := Guesses.WithLabelValues("date", "true")
	before := testutil.ToFloat64(c)
	c.Inc()
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}
