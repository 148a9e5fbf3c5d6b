package iso4217

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/langowen/converter/internal/entities"
	"github.com/pkg/errors"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

//go:embed data/iso4217.json
var dataset []byte

// countries accepts both "US" and ["US", "AS"].
type countries []string

func (c *countries) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*c = countries{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*c = list
	return nil
}

type record struct {
	Name    string    `json:"name"`
	Alpha3  string    `json:"alpha3"`
	Numeric string    `json:"numeric"`
	Exp     int       `json:"exp"`
	Country countries `json:"country"`
}

// Table is an immutable view over the ISO 4217 dataset indexed by alpha3
// and by country code. When a country appears under several currencies the
// first record in dataset order wins. Countries the dataset does not list
// are resolved through CLDR region data.
type Table struct {
	currencies []entities.Currency
	byAlpha3   map[string]int
	byCountry  map[string]int
}

// Parse builds a Table from JSON records.
func Parse(data []byte) (*Table, error) {
	const op = "iso4217.Parse"

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, op)
	}

	t := &Table{
		currencies: make([]entities.Currency, 0, len(records)),
		byAlpha3:   make(map[string]int, len(records)),
		byCountry:  make(map[string]int, len(records)*2),
	}

	for _, r := range records {
		alpha3 := entities.NormalizeCode(r.Alpha3)
		if !entities.IsAlpha3(alpha3) {
			return nil, errors.Wrapf(entities.ErrInvalidCode, "%s: currency %q", op, r.Alpha3)
		}
		if _, dup := t.byAlpha3[alpha3]; dup {
			return nil, errors.Errorf("%s: duplicate currency %s", op, alpha3)
		}

		cur := entities.Currency{
			Alpha3:    alpha3,
			Name:      r.Name,
			Numeric:   r.Numeric,
			Exp:       r.Exp,
			Countries: make([]string, 0, len(r.Country)),
		}

		idx := len(t.currencies)
		for _, cc := range r.Country {
			cc = entities.NormalizeCode(cc)
			cur.Countries = append(cur.Countries, cc)
			if _, taken := t.byCountry[cc]; !taken {
				t.byCountry[cc] = idx
			}
		}

		t.byAlpha3[alpha3] = idx
		t.currencies = append(t.currencies, cur)
	}

	return t, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded table, parsed once per process.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(dataset)
	})

	return defaultTable, defaultErr
}

func (t *Table) ByCountry(countryCode string) (entities.Currency, bool) {
	countryCode = entities.NormalizeCode(countryCode)

	if idx, ok := t.byCountry[countryCode]; ok {
		return t.currencies[idx], true
	}

	alpha3, ok := regionCurrency(countryCode)
	if !ok {
		return entities.Currency{}, false
	}

	return t.ByAlpha3(alpha3)
}

// regionCurrency reports the currency currently tendered in a region
// according to CLDR.
func regionCurrency(countryCode string) (string, bool) {
	if !entities.IsCountryCode(countryCode) {
		return "", false
	}

	region, err := language.ParseRegion(countryCode)
	if err != nil {
		return "", false
	}

	unit, ok := currency.FromRegion(region)
	if !ok {
		return "", false
	}

	return unit.String(), true
}

func (t *Table) ByAlpha3(alpha3 string) (entities.Currency, bool) {
	idx, ok := t.byAlpha3[entities.NormalizeCode(alpha3)]
	if !ok {
		return entities.Currency{}, false
	}

	return t.currencies[idx], true
}

// Currencies returns the records in dataset order.
func (t *Table) Currencies() []entities.Currency {
	out := make([]entities.Currency, len(t.currencies))
	copy(out, t.currencies)

	return out
}
