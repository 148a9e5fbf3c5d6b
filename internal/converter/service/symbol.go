package service

type SymbolFormatter interface {
	Symbol(alpha3, locale string) (string, error)
}
