package helpers

import (
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

type MoneyFormatter struct {
	ac accounting.Accounting
}

func NewMoneyFormatter(symbol string) *MoneyFormatter {
	return &MoneyFormatter{ac: accounting.Accounting{Symbol: symbol, Precision: 2}}
}

func (f *MoneyFormatter) Format(amount decimal.Decimal) string {
	return f.ac.FormatMoneyDecimal(amount)
}
