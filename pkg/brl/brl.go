// Package brl formats amounts as Brazilian reais.
package brl

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	symbol      = "R$ "
	rentSuffix  = "/mês"
	rentTypeKey = "rent"
)

// Money formats v with pt-BR digit grouping and no fraction digits,
// e.g. "R$ 1.250.000".
func Money(v float64) string {
	p := message.NewPrinter(language.BrazilianPortuguese)
	return symbol + p.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
}

// Price formats a listing price; rent prices are monthly.
func Price[T ~string](v float64, propertyType T) string {
	if string(propertyType) == rentTypeKey {
		return Money(v) + rentSuffix
	}
	return Money(v)
}
