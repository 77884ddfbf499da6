// Package tax computes tax amounts from the store tax settings. Amounts are
// integer cents; rounding is half-up on the cent.
package tax

import (
	"github.com/shopspring/decimal"
	"github.com/subforge/renewals/internal/config"
	"go.uber.org/fx"
)

// Tax is the outcome of a calculation. For inclusive pricing Amount is the
// portion of the given amount that is tax; for exclusive pricing it is the
// amount to add on top.
type Tax struct {
	Amount    int64
	Rate      float64
	Inclusive bool
}

type Calculator struct {
	storeCfg *config.StoreConfigHolder
}

func NewCalculator(storeCfg *config.StoreConfigHolder) *Calculator {
	return &Calculator{storeCfg: storeCfg}
}

func (c *Calculator) Calculate(amount int64, taxExempt bool) Tax {
	cfg := c.storeCfg.Current()

	inclusive := cfg.TaxMode == config.TaxModeInclusive
	if !cfg.TaxesEnabled || taxExempt || cfg.TaxRate <= 0 || amount <= 0 {
		return Tax{Inclusive: inclusive}
	}

	rate := decimal.NewFromFloat(cfg.TaxRate)
	base := decimal.NewFromInt(amount)

	var taxAmount decimal.Decimal
	if inclusive {
		// amount already contains tax; back it out.
		net := base.Div(decimal.NewFromInt(1).Add(rate))
		taxAmount = base.Sub(net)
	} else {
		taxAmount = base.Mul(rate)
	}

	return Tax{
		Amount:    taxAmount.Round(0).IntPart(),
		Rate:      cfg.TaxRate,
		Inclusive: inclusive,
	}
}

// Rate exposes the current store rate for callers that persist it alongside
// computed amounts.
func (c *Calculator) Rate() float64 {
	cfg := c.storeCfg.Current()
	if !cfg.TaxesEnabled {
		return 0
	}
	return cfg.TaxRate
}

var Module = fx.Module("tax",
	fx.Provide(NewCalculator),
)
