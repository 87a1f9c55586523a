package report

import "finboard/internal/core"

// SavingsStatus classifies the sign of the available balance.
type SavingsStatus string

const (
	SavingsNegative SavingsStatus = "negative"
	SavingsGrowing  SavingsStatus = "growing"
	SavingsFlat     SavingsStatus = "flat"
)

// SavingsStatusFor maps a balance to exactly one status.
func SavingsStatusFor(balance core.Money) SavingsStatus {
	switch balance.Sign() {
	case -1:
		return SavingsNegative
	case 1:
		return SavingsGrowing
	default:
		return SavingsFlat
	}
}

// Message is the short user-facing note shown next to the savings figure.
func (s SavingsStatus) Message() string {
	switch s {
	case SavingsNegative:
		return "Your savings balance has dropped below zero."
	case SavingsGrowing:
		return "Your savings are growing."
	default:
		return ""
	}
}

// Totals is the Aggregator output.
type Totals struct {
	TotalIncome      core.Money
	TotalExpense     core.Money
	AvailableBalance core.Money
	SavingsStatus    SavingsStatus
}

// Aggregate sums income and expense amounts in minor units.
func Aggregate(records []core.Transaction) Totals {
	var income, expense core.Money
	for _, tx := range records {
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expense = expense.Add(tx.Amount)
		}
	}
	balance := income.Sub(expense)
	return Totals{
		TotalIncome:      income,
		TotalExpense:     expense,
		AvailableBalance: balance,
		SavingsStatus:    SavingsStatusFor(balance),
	}
}
