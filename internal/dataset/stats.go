package dataset

import (
	"log/slog"
	"strings"
)

// Billing caps mirror the fine-tuning service's per-example token limit
// and the target total example counts used for epoch estimation.
const (
	maxTokensPerExample = 16385

	minTargetExamples = 100
	maxTargetExamples = 25000
	minDefaultEpochs  = 1
	maxDefaultEpochs  = 25
)

// megatokenPrice is training cost in USD per million billed tokens,
// ordered so dated snapshots match their family before the shorter
// prefix.
var megatokenPrice = []struct {
	model string
	price float64
}{
	{"gpt-4o-mini", 3},
	{"gpt-4o", 25},
}

func priceFor(model string) (float64, bool) {
	for _, p := range megatokenPrice {
		if strings.HasPrefix(model, p.model) {
			return p.price, true
		}
	}
	return 0, false
}

// EstimateEpochs adjusts the requested epoch count so the total number of
// trained examples stays inside the service's target range.
func EstimateEpochs(nExamples, nEpochs int) int {
	if nExamples <= 0 {
		return nEpochs
	}
	if nExamples*nEpochs < minTargetExamples {
		adjusted := minTargetExamples / nExamples
		if adjusted > maxDefaultEpochs {
			adjusted = maxDefaultEpochs
		}
		return adjusted
	}
	if nExamples*nEpochs > maxTargetExamples {
		adjusted := maxTargetExamples / nExamples
		if adjusted < minDefaultEpochs {
			adjusted = minDefaultEpochs
		}
		return adjusted
	}
	return nEpochs
}

// BillingTokens estimates billed tokens for the dataset using content
// length as the token proxy, capped per example.
func BillingTokens(examples []Example) int {
	total := 0
	for _, ex := range examples {
		size := 0
		for _, m := range ex.Messages {
			size += len(m.Content)
		}
		if size > maxTokensPerExample {
			size = maxTokensPerExample
		}
		total += size
	}
	return total
}

// LogBillingInfo reports the expected training charge for the dataset.
func LogBillingInfo(logger *slog.Logger, examples []Example, epochs int, model string) {
	datasetTokens := BillingTokens(examples)
	effectiveEpochs := EstimateEpochs(len(examples), epochs)
	trainingTokens := effectiveEpochs * datasetTokens

	attrs := []any{
		"examples", len(examples),
		"dataset_tokens", datasetTokens,
		"epochs", effectiveEpochs,
		"training_tokens", trainingTokens,
	}
	if price, ok := priceFor(model); ok {
		attrs = append(attrs, "estimated_cost_usd", price*float64(trainingTokens)/1e6)
	} else {
		attrs = append(attrs, "model_unpriced", model)
	}
	logger.Info("fine-tuning billing estimate", attrs...)
}
