package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxDecimals is the largest decimal count a mint may use.
const MaxDecimals = 9

// FormInputs is the token form. It can be prefilled from a YAML token file.
type FormInputs struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Symbol      string `json:"symbol" yaml:"symbol" mapstructure:"symbol"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	LogoPath    string `json:"logo_path,omitempty" yaml:"logo,omitempty" mapstructure:"logo"`
	Logo        []byte `json:"-" yaml:"-" mapstructure:"-"`
	Decimals    uint8  `json:"decimals" yaml:"decimals" mapstructure:"decimals"`
	Quantity    uint64 `json:"quantity" yaml:"quantity" mapstructure:"quantity"`
	SolAmount   string `json:"sol_amount,omitempty" yaml:"sol_amount,omitempty" mapstructure:"sol_amount"`
}

// DefaultFormInputs returns a form with default values.
func DefaultFormInputs() FormInputs {
	return FormInputs{
		Decimals: MaxDecimals,
	}
}

// Validate checks the fields the token creation step consumes.
func (f FormInputs) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("token name is required")
	}
	if strings.TrimSpace(f.Symbol) == "" {
		return fmt.Errorf("token symbol is required")
	}
	if len(f.Logo) == 0 {
		return fmt.Errorf("token logo is required")
	}
	if f.Decimals > MaxDecimals {
		return fmt.Errorf("decimals must be between 0 and %d", MaxDecimals)
	}
	if f.Quantity == 0 {
		return fmt.Errorf("quantity must be greater than zero")
	}
	scale := uint64(math.Pow10(int(f.Decimals)))
	if f.Quantity > math.MaxUint64/scale {
		return fmt.Errorf("quantity %d is too large for %d decimals", f.Quantity, f.Decimals)
	}
	return nil
}

// mintedFieldChanged names the first field the mint was created from that
// differs in next, or returns "".
func (f FormInputs) mintedFieldChanged(next FormInputs) string {
	switch {
	case strings.TrimSpace(next.Name) != strings.TrimSpace(f.Name):
		return "name"
	case strings.TrimSpace(next.Symbol) != strings.TrimSpace(f.Symbol):
		return "symbol"
	case next.Decimals != f.Decimals:
		return "decimals"
	case next.Quantity != f.Quantity:
		return "quantity"
	}
	return ""
}

// ParseSolAmount parses a positive, finite SOL amount.
func ParseSolAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("SOL amount %q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("SOL amount must be a positive number")
	}
	return v, nil
}

// Lamports converts a SOL amount to lamports.
func Lamports(sol float64) (uint64, error) {
	lamports := math.Round(sol * 1e9)
	if lamports < 1 {
		return 0, fmt.Errorf("SOL amount %g is below one lamport", sol)
	}
	if lamports >= math.MaxUint64 {
		return 0, fmt.Errorf("SOL amount %g is too large", sol)
	}
	return uint64(lamports), nil
}
