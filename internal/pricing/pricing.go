// Package pricing computes the initial and recurring amounts for subscription
// cart lines. All money is integer cents; intermediate math runs on decimals
// and only rounds when a concrete charge amount is produced.
package pricing

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	discountdomain "github.com/subforge/renewals/internal/discount/domain"
	"github.com/subforge/renewals/internal/tax"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Line is one subscription product in the cart.
type Line struct {
	ProductID snowflake.ID
	Quantity  int
	// UnitPrice is the per-unit recurring base price.
	UnitPrice int64
	// SignupFee is charged once on the first payment, never on renewals.
	SignupFee int64
	TaxExempt bool
}

// LineAmounts is the priced outcome for a single line.
type LineAmounts struct {
	ProductID snowflake.ID `json:"product_id"`

	// Initial covers the first charge: discounted price plus signup fee.
	Initial    int64 `json:"initial"`
	InitialTax int64 `json:"initial_tax"`

	// Recurring covers every renewal: only renewal-eligible discounts apply
	// and the signup fee is gone.
	Recurring    int64 `json:"recurring"`
	RecurringTax int64 `json:"recurring_tax"`

	TaxRate float64 `json:"tax_rate"`
}

type Result struct {
	Lines []LineAmounts `json:"lines"`
}

type Calculator struct {
	log       *zap.Logger
	tax       *tax.Calculator
	discounts discountdomain.Service
}

type CalculatorParam struct {
	fx.In

	Log       *zap.Logger
	Tax       *tax.Calculator
	Discounts discountdomain.Service
}

func NewCalculator(p CalculatorParam) *Calculator {
	return &Calculator{
		log:       p.Log.Named("pricing.calculator"),
		tax:       p.Tax,
		discounts: p.Discounts,
	}
}

// Compute prices the cart. Discount codes resolve against the store; a code
// that fails to resolve fails the whole computation so a checkout never
// silently drops a discount the customer typed.
func (c *Calculator) Compute(ctx context.Context, lines []Line, codes []string) (Result, error) {
	discounts := make([]discountdomain.Discount, 0, len(codes))
	for _, code := range codes {
		discount, err := c.discounts.Resolve(ctx, code)
		if err != nil {
			return Result{}, err
		}
		discounts = append(discounts, discount)
	}

	initial := c.applyDiscounts(lines, discounts, false)
	recurring := c.applyDiscounts(lines, discounts, true)

	result := Result{Lines: make([]LineAmounts, len(lines))}
	for i, line := range lines {
		initialBase := initial[i] + line.SignupFee
		initialTax := c.tax.Calculate(initialBase, line.TaxExempt)
		recurringTax := c.tax.Calculate(recurring[i], line.TaxExempt)

		result.Lines[i] = LineAmounts{
			ProductID:    line.ProductID,
			Initial:      initialBase,
			InitialTax:   initialTax.Amount,
			Recurring:    recurring[i],
			RecurringTax: recurringTax.Amount,
			TaxRate:      initialTax.Rate,
		}
	}

	return result, nil
}

// applyDiscounts returns the post-discount base amount per line. When
// renewalsOnly is set, discounts that do not carry into renewals are skipped.
func (c *Calculator) applyDiscounts(lines []Line, discounts []discountdomain.Discount, renewalsOnly bool) []int64 {
	amounts := make([]int64, len(lines))
	for i, line := range lines {
		quantity := line.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		amounts[i] = line.UnitPrice * int64(quantity)
	}

	for _, discount := range discounts {
		if renewalsOnly && !c.discounts.RenewalEligible(discount) {
			continue
		}

		eligible := make([]bool, len(lines))
		anyEligible := false
		for i, line := range lines {
			if discount.AppliesTo(line.ProductID) {
				eligible[i] = true
				anyEligible = true
			}
		}
		if !anyEligible {
			continue
		}

		switch discount.Type {
		case discountdomain.DiscountTypePercent:
			applyPercent(amounts, eligible, discount.Percent)
		case discountdomain.DiscountTypeFlat:
			applyFlat(amounts, eligible, discount.FlatAmount)
		}
	}

	return amounts
}

func applyPercent(amounts []int64, eligible []bool, percent float64) {
	rate := decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100))
	for i := range amounts {
		if !eligible[i] {
			continue
		}
		reduction := decimal.NewFromInt(amounts[i]).Mul(rate).Round(0).IntPart()
		amounts[i] -= reduction
		if amounts[i] < 0 {
			amounts[i] = 0
		}
	}
}

// applyFlat spreads a flat reduction across the eligible lines in proportion
// to their amounts. Every line takes its floored share and the last eligible
// line absorbs the leftover cents, so the shares always sum to the reduction
// exactly.
func applyFlat(amounts []int64, eligible []bool, flat int64) {
	var subtotal int64
	lastEligible := -1
	for i, amount := range amounts {
		if !eligible[i] {
			continue
		}
		subtotal += amount
		lastEligible = i
	}
	if subtotal <= 0 || flat <= 0 {
		return
	}

	// Never reduce below a zero total across the eligible lines.
	effective := flat
	if effective > subtotal {
		effective = subtotal
	}

	effectiveDec := decimal.NewFromInt(effective)
	subtotalDec := decimal.NewFromInt(subtotal)

	var allocated int64
	for i, amount := range amounts {
		if !eligible[i] {
			continue
		}

		var share int64
		if i == lastEligible {
			share = effective - allocated
		} else {
			share = effectiveDec.
				Mul(decimal.NewFromInt(amount)).
				Div(subtotalDec).
				Floor().
				IntPart()
			allocated += share
		}

		amounts[i] -= share
		if amounts[i] < 0 {
			amounts[i] = 0
		}
	}
}
