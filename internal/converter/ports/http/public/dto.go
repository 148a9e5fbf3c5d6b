package public

type pairRequest struct {
	From string `validate:"required,len=3,alpha"`
	To   string `validate:"required,len=3,alpha"`
}

type convertRequest struct {
	From   string  `validate:"required,len=3,alpha"`
	To     string  `validate:"required,len=3,alpha"`
	Amount float64
}

type countryRequest struct {
	Code   string `validate:"required,len=2,alpha"`
	Locale string `validate:"omitempty,max=35"`
}

type symbolRequest struct {
	Alpha3 string `validate:"required,len=3,alpha"`
	Locale string `validate:"omitempty,max=35"`
}

type RateResponse struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

type ConvertResponse struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Result float64 `json:"result"`
}

type CountryResponse struct {
	Country  string `json:"country"`
	Alpha3   string `json:"alpha3"`
	Currency string `json:"currency"`
}

type SymbolResponse struct {
	Symbol string `json:"symbol"`
}
