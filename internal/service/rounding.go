package service

import (
	"github.com/shopspring/decimal"

	"github.com/jigu1688/sporttools-sub001/internal/models"
)

// applyRounding normalises a raw value to places decimal digits. Decimal
// arithmetic keeps values such as 1.1 from turning into 1.1000000000000001
// and crossing a ceiling boundary.
func applyRounding(rule models.RoundingRule, value float64, places int32) float64 {
	d := decimal.NewFromFloat(value)
	switch rule {
	case models.RoundCeiling:
		d = d.RoundCeil(places)
	case models.RoundTruncate:
		d = d.Truncate(places)
	default:
		d = d.Round(places)
	}
	return d.InexactFloat64()
}

func roundTo(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}
