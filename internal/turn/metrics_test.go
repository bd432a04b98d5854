package turn

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ananta-systems/ai-inbox/internal/oracle"
)

func TestTurnMetricsRecorded(t *testing.T) {
	o := &stubOracle{decisions: []oracle.Decision{{Kind: oracle.DecisionFinalText, Text: "hello"}}}
	engine, _ := newTestEngine(o, &stubRouter{})

	if _, err := engine.ProcessTurn(context.Background(), turnRequest("metrics-user", "hi")); err != nil {
		t.Fatalf("process turn: %v", err)
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, family := range families {
		byName[family.GetName()] = family
	}

	latency, ok := byName["aiinbox_turn_latency_seconds"]
	if !ok {
		t.Fatal("expected turn latency histogram to be registered")
	}
	found := false
	for _, metric := range latency.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" && label.GetValue() == outcomeSuccess {
				found = true
				if metric.GetHistogram().GetSampleCount() == 0 {
					t.Error("expected at least one latency observation")
				}
			}
		}
	}
	if !found {
		t.Error("expected a success outcome series")
	}

	if _, ok := byName["aiinbox_turn_oracle_calls_total"]; !ok {
		t.Error("expected oracle call counter to be registered")
	}
}
