package service

import "github.com/langowen/converter/internal/entities"

type CurrencyTable interface {
	ByCountry(countryCode string) (entities.Currency, bool)
	ByAlpha3(alpha3 string) (entities.Currency, bool)
}
