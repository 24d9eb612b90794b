package dataset

import (
	"strings"
	"testing"
)

func TestEstimateEpochs_WithinRangeUnchanged(t *testing.T) {
	if got := EstimateEpochs(500, 2); got != 2 {
		t.Errorf("EstimateEpochs(500, 2) = %d, want 2", got)
	}
}

func TestEstimateEpochs_RaisesForTinyDatasets(t *testing.T) {
	// 10 examples * 2 epochs = 20, below the 100-example floor.
	if got := EstimateEpochs(10, 2); got != 10 {
		t.Errorf("EstimateEpochs(10, 2) = %d, want 10", got)
	}
	// 2 examples would need 50 epochs; capped at 25.
	if got := EstimateEpochs(2, 2); got != 25 {
		t.Errorf("EstimateEpochs(2, 2) = %d, want 25", got)
	}
}

func TestEstimateEpochs_LowersForHugeDatasets(t *testing.T) {
	// 20000 examples * 2 epochs = 40000, above the 25000 ceiling.
	if got := EstimateEpochs(20000, 2); got != 1 {
		t.Errorf("EstimateEpochs(20000, 2) = %d, want 1", got)
	}
	// Never drops below one epoch.
	if got := EstimateEpochs(30000, 2); got != 1 {
		t.Errorf("EstimateEpochs(30000, 2) = %d, want 1", got)
	}
}

func TestPriceFor_MatchesDatedSnapshots(t *testing.T) {
	if price, ok := priceFor("gpt-4o-mini-2024-07-18"); !ok || price != 3 {
		t.Errorf("priceFor(gpt-4o-mini-2024-07-18) = %v, %v", price, ok)
	}
	if price, ok := priceFor("gpt-4o"); !ok || price != 25 {
		t.Errorf("priceFor(gpt-4o) = %v, %v", price, ok)
	}
	if _, ok := priceFor("gpt-3.5-turbo"); ok {
		t.Error("expected unpriced model to miss")
	}
}

func TestBillingTokens_CapsPerExample(t *testing.T) {
	examples := []Example{
		{Messages: []Message{{Role: "assistant", Content: "short"}}},
		{Messages: []Message{{Role: "assistant", Content: strings.Repeat("x", maxTokensPerExample+500)}}},
	}

	got := BillingTokens(examples)
	want := len("short") + maxTokensPerExample
	if got != want {
		t.Errorf("BillingTokens = %d, want %d", got, want)
	}
}
