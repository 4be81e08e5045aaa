package quotations

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// TotalsPolicy carries the document-level levies applied on top of the lines.
type TotalsPolicy struct {
	SurchargePercent decimal.Decimal
	StampDuty        decimal.Decimal
}

// DefaultTotalsPolicy is a 1% surcharge and no stamp duty.
func DefaultTotalsPolicy() TotalsPolicy {
	return TotalsPolicy{SurchargePercent: decimal.NewFromInt(1), StampDuty: decimal.Zero}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func clampPercent(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}

func lineGross(l LineItem) decimal.Decimal {
	return l.Quantity.Mul(l.UnitPriceExclTax)
}

// lineNet is unrounded.
func lineNet(l LineItem) decimal.Decimal {
	keep := hundred.Sub(clampPercent(l.DiscountPercent)).Div(hundred)
	return lineGross(l).Mul(keep)
}

// Recalculate derives every line total and the totals block from the lines. The net and tax
// totals are built from the rounded line totals, so the lines always add up to the net.
func Recalculate(q *Quotation, policy TotalsPolicy) {
	gross, net, tax := decimal.Zero, decimal.Zero, decimal.Zero
	for i := range q.Lines {
		line := &q.Lines[i]
		line.LineTotalExclTax = round2(lineNet(*line))
		gross = gross.Add(lineGross(*line))
		net = net.Add(line.LineTotalExclTax)
		tax = tax.Add(line.LineTotalExclTax.Mul(clampPercent(line.TaxRatePercent)).Div(hundred))
	}

	t := Totals{
		TotalExclTaxBeforeDiscount: round2(gross),
		TotalExclTaxNet:            round2(net),
		TotalTax:                   round2(tax),
		SurchargePercent:           policy.SurchargePercent,
		StampDuty:                  round2(policy.StampDuty),
	}
	t.SurchargeAmount = round2(t.TotalExclTaxNet.Mul(policy.SurchargePercent).Div(hundred))
	t.TotalInclTax = t.TotalExclTaxNet.Add(t.TotalTax).Add(t.SurchargeAmount).Add(t.StampDuty)
	q.Totals = t
}
