package symbol

import (
	"log/slog"
	"strings"

	"github.com/langowen/converter/internal/entities"
	"github.com/pkg/errors"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders CLDR currency symbols for POSIX style locales
// ("en_US", "tr_TR") as well as BCP 47 tags ("en-US").
type Formatter struct {
	fallback language.Tag
	logger   *slog.Logger
}

func NewFormatter(fallback string, logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}

	tag, err := parseLocale(fallback)
	if err != nil {
		tag = language.AmericanEnglish
	}

	return &Formatter{
		fallback: tag,
		logger:   logger,
	}
}

func (f *Formatter) Symbol(alpha3, locale string) (string, error) {
	const op = "symbol.Symbol"

	unit, err := currency.ParseISO(alpha3)
	if err != nil {
		return "", errors.Wrapf(entities.ErrNotFound, "%s: currency %q", op, alpha3)
	}

	tag, err := parseLocale(locale)
	if err != nil {
		f.logger.Debug("Unknown locale, using fallback", "op", op, "locale", locale, "fallback", f.fallback.String())
		tag = f.fallback
	}

	p := message.NewPrinter(tag)

	return p.Sprint(currency.Symbol(unit.Amount(nil))), nil
}

func parseLocale(locale string) (language.Tag, error) {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "" {
		return language.Und, errors.New("empty locale")
	}

	return language.Parse(strings.ReplaceAll(locale, "_", "-"))
}
