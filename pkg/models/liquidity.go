package models

import "time"

// SeriesKey identifies one of the tracked net-liquidity series.
type SeriesKey string

const (
	// SeriesFormula1 is the net-liquidity formula result:
	// Fed_Assets - TGA - RRP + Loans_Facilities + Loans_Held.
	SeriesFormula1        SeriesKey = "formula_1"
	SeriesFedAssets       SeriesKey = "fed_assets"
	SeriesTGA             SeriesKey = "tga"
	SeriesRRP             SeriesKey = "rrp"
	SeriesLoansFacilities SeriesKey = "loans_facilities"
	SeriesLoansHeld       SeriesKey = "loans_held"
)

// SeriesKeys lists all tracked series in display order.
var SeriesKeys = []SeriesKey{
	SeriesFormula1,
	SeriesFedAssets,
	SeriesTGA,
	SeriesRRP,
	SeriesLoansFacilities,
	SeriesLoansHeld,
}

// ValidSeriesKey reports whether k names a tracked series.
func ValidSeriesKey(k SeriesKey) bool {
	for _, key := range SeriesKeys {
		if key == k {
			return true
		}
	}
	return false
}

// SeriesTitle returns the human-readable chart title for a series key.
func SeriesTitle(k SeriesKey) string {
	switch k {
	case SeriesFormula1:
		return "Net Liquidity"
	case SeriesFedAssets:
		return "Fed Total Assets"
	case SeriesTGA:
		return "Treasury General Account"
	case SeriesRRP:
		return "Reverse Repo"
	case SeriesLoansFacilities:
		return "Liquidity Facility Loans"
	case SeriesLoansHeld:
		return "Loans Held"
	default:
		return string(k)
	}
}

// Point is a single dated observation in a series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is an ordered sequence of points for one tracked metric.
// Order is ascending by date as provided by the source; the pipeline
// trusts input order and never re-sorts.
type Series []Point

// SeriesSet maps each tracked series key to its normalized series.
type SeriesSet map[SeriesKey]Series

// Meta carries document-level metadata for a normalized data load.
type Meta struct {
	LastUpdated time.Time `json:"last_updated"`
}
