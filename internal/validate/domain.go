package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/andrelmp/precifica/internal/numfmt"
)

const maxPrice = 999_999_999

var (
	productCodeRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	dateRe        = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
)

// ProductCode validates an ERP product code: required, 2 to 50 characters,
// letters, digits, hyphen and underscore only. The sanitized value is
// canonicalized to upper case, so re-validating an already sanitized code
// returns it unchanged.
func ProductCode(value string) Result {
	return Field(value, Rules{
		Required:  true,
		MinLength: 2,
		MaxLength: 50,
		Custom: func(s string) Result {
			if !productCodeRe.MatchString(s) {
				return invalid("Código deve conter apenas letras, números, hífen e sublinhado")
			}
			return valid(strings.ToUpper(s))
		},
	})
}

// Date validates an optional DD/MM/YYYY date against the current clock.
func Date(value string) Result {
	return DateAt(value, time.Now())
}

// DateAt is Date with an injected "now", for deterministic boundary checks.
// The day/month/year triple is round-tripped through time.Date so impossible
// calendar combinations such as 31/02 are rejected, and the date may not be
// more than one year in the future.
func DateAt(value string, now time.Time) Result {
	if strings.TrimSpace(value) == "" {
		return valid("")
	}

	s := sanitize(value)
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return invalid("Data deve estar no formato DD/MM/AAAA")
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if day < 1 || day > 31 {
		return invalid("Dia deve estar entre 1 e 31")
	}
	if month < 1 || month > 12 {
		return invalid("Mês deve estar entre 1 e 12")
	}
	if year < 1900 || year > 2100 {
		return invalid("Ano deve estar entre 1900 e 2100")
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) || d.Year() != year {
		return invalid("Data inválida")
	}

	if d.After(now.AddDate(1, 0, 0)) {
		return invalid("Data não pode estar mais de um ano no futuro")
	}

	return valid(s)
}

// Price validates a required, non-negative sale or cost price given as a
// locale-formatted string. Values with more than two decimals are silently
// rounded to two.
func Price(value string) NumericResult {
	if strings.TrimSpace(value) == "" {
		return NumericResult{Valid: false, Error: "Preço é obrigatório"}
	}

	n, ok := numfmt.SanitizeNumber(sanitize(value))
	if !ok {
		return NumericResult{Valid: false, Error: "Preço deve ser um número válido"}
	}
	if n < 0 {
		return NumericResult{Valid: false, Error: "Preço não pode ser negativo"}
	}
	if n > maxPrice {
		return NumericResult{Valid: false, Error: "Preço excede o valor máximo permitido"}
	}

	return NumericResult{Valid: true, Value: numfmt.RoundToPrecision(n, 2)}
}

// Percentage validates a percentage between -100 and 1000, rounded to two
// decimals.
func Percentage(value string) NumericResult {
	if strings.TrimSpace(value) == "" {
		return NumericResult{Valid: false, Error: "Percentual é obrigatório"}
	}

	n, ok := numfmt.SanitizeNumber(sanitize(value))
	if !ok {
		return NumericResult{Valid: false, Error: "Percentual deve ser um número válido"}
	}
	if n < -100 || n > 1000 {
		return NumericResult{Valid: false, Error: "Percentual deve estar entre -100 e 1000"}
	}

	return NumericResult{Valid: true, Value: numfmt.RoundToPrecision(n, 2)}
}
