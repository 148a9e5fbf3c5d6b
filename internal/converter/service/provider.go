package service

import "context"

// RateProvider never returns transport errors to the caller, failures are
// logged by the provider and reported as ok == false or an empty list.
type RateProvider interface {
	ConversionRate(ctx context.Context, from, to string) (rate float64, ok bool)
	CurrencyList(ctx context.Context) []string
}
