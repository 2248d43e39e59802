package tickers

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// MaxLength is the longest identifier the provider is queried with.
const MaxLength = 20

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9._^-]+$`)

// RegisterValidation installs the "ticker" tag (character class only) on v.
func RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return tickerPattern.MatchString(fl.Field().String())
	})
}

// Validator checks resolved identifiers before they reach the market-data provider.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	if err := RegisterValidation(v); err != nil {
		// only fails on an empty tag or nil func
		panic(err)
	}
	return &Validator{v: v}
}

// Validate returns nil when s is a non-empty, at most 20 character token of [A-Za-z0-9._^-].
func (x *Validator) Validate(s string) error {
	return x.v.Var(s, "required,max=20,ticker")
}
