package decimal

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

var hundred = decimal.NewFromInt(100)

// Round rounds half away from zero to a whole dollar (TWD has no cents on invoices)
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Floor truncates toward negative infinity to a whole dollar
func Floor(d decimal.Decimal) decimal.Decimal {
	return d.Floor()
}

// LineAmount computes round(quantity * price)
func LineAmount(quantity int64, price decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(quantity).Mul(price).Round(0)
}

// CalculateTax computes round(amount * rate/100)
func CalculateTax(amount, ratePercent decimal.Decimal) decimal.Decimal {
	if ratePercent.IsZero() {
		return Zero
	}
	return amount.Mul(ratePercent).Div(hundred).Round(0)
}

// TaxInclusive computes round(price * (1 + rate/100))
func TaxInclusive(price, ratePercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(ratePercent.Div(hundred))
	return price.Mul(factor).Round(0)
}

// Prorate computes round(part / whole * total)
func Prorate(part, whole, total decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return Zero
	}
	return part.Div(whole).Mul(total).Round(0)
}

// Allocate distributes total over the taxed amounts.
// A single taxed amount receives the whole total. Otherwise each share is
// Prorate(amount, sum(taxed), total); the rounding residual is left as is.
// Untaxed entries are returned unchanged.
func Allocate(amounts []decimal.Decimal, taxed []bool, total decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(amounts))
	copy(out, amounts)

	taxedSum := Zero
	count := 0
	for i, a := range amounts {
		if taxed[i] {
			taxedSum = taxedSum.Add(a)
			count++
		}
	}

	for i, a := range amounts {
		if !taxed[i] {
			continue
		}
		if count == 1 {
			out[i] = total
			continue
		}
		out[i] = Prorate(a, taxedSum, total)
	}
	return out
}

// Percentage computes round(n / total * 100) as an int
func Percentage(n, total int) int {
	if total <= 0 {
		return 0
	}
	p := decimal.NewFromInt(int64(n)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(0)
	return int(p.IntPart())
}
