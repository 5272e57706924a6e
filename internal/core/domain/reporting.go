package domain

import "github.com/shopspring/decimal"

// ScheduledDelta aggregates the not-yet-settled installment totals that will
// eventually hit one account: incoming covers revenue installments and
// transfer legs targeting the account, outgoing covers expense installments
// and transfer legs leaving it.
type ScheduledDelta struct {
	AccountID string
	Incoming  decimal.Decimal
	Outgoing  decimal.Decimal
}

// Net returns incoming minus outgoing.
func (d ScheduledDelta) Net() decimal.Decimal {
	return d.Incoming.Sub(d.Outgoing)
}
