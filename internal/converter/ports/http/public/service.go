package public

import "context"

type Service interface {
	ConversionRate(ctx context.Context, from, to string) (float64, error)
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
	CurrencyList(ctx context.Context) ([]string, error)
	Alpha3ByCountryCode(ctx context.Context, countryCode string) (string, error)
	CurrencyByCountryCode(ctx context.Context, countryCode string) (string, error)
	CurrencySymbolByAlpha3(ctx context.Context, alpha3, locale string) (string, error)
	CurrencySymbolByCountryCode(ctx context.Context, countryCode, locale string) (string, error)
}
