package model

import "github.com/shopspring/decimal"

// Money columns are DECIMAL(10,2); amounts are rounded to cents before
// they are stored or summed so that totals match the persisted values.
const moneyPlaces = 2

func init() {
	// Amounts leave the API as JSON numbers, e.g. "price": 200.
	decimal.MarshalJSONWithoutQuotes = true
}

// Cents rounds d to two decimal places.
func Cents(d decimal.Decimal) decimal.Decimal { return d.Round(moneyPlaces) }
