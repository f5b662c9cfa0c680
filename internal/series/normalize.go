package series

import (
	"fmt"
	"math"

	"github.com/liqboard/liqboard/pkg/models"
	"github.com/liqboard/liqboard/pkg/utils"
)

// rrpScale aligns the record form's reverse-repo field (reported in
// billions) with the other fields (millions).
const rrpScale = 1000

// Diagnostic describes one malformed observation that was dropped
// during normalization.
type Diagnostic struct {
	Series models.SeriesKey `json:"series,omitempty"`
	Index  int              `json:"index"`
	Date   string           `json:"date,omitempty"`
	Reason string           `json:"reason"`
}

func (d Diagnostic) String() string {
	if d.Series == "" {
		return fmt.Sprintf("record %d (%s): %s", d.Index, d.Date, d.Reason)
	}
	return fmt.Sprintf("%s[%d] (%s): %s", d.Series, d.Index, d.Date, d.Reason)
}

// Normalize converts a raw document of either shape into the canonical
// series set and resolved metadata. Malformed points (unparseable date,
// missing or non-finite value) are dropped and reported as diagnostics
// instead of flowing through as NaN. Input order is preserved.
func Normalize(raw *RawDocument) (models.SeriesSet, models.Meta, []Diagnostic) {
	set := emptySet()
	var meta models.Meta
	var diags []Diagnostic

	switch raw.Form {
	case FormRecord:
		diags = normalizeRecords(raw.Records, set)
		meta = resolveRecordMeta(raw.Records)
	default:
		diags = normalizeTuple(raw.Tuple, set)
		meta = resolveTupleMeta(raw.Tuple)
	}

	return set, meta, diags
}

func emptySet() models.SeriesSet {
	set := make(models.SeriesSet, len(models.SeriesKeys))
	for _, k := range models.SeriesKeys {
		set[k] = models.Series{}
	}
	return set
}

// normalizeTuple maps each named pair list onto its canonical series.
func normalizeTuple(doc *TupleDocument, set models.SeriesSet) []Diagnostic {
	var diags []Diagnostic

	for _, part := range []struct {
		key   models.SeriesKey
		pairs []TuplePair
	}{
		{models.SeriesFormula1, doc.Formula1},
		{models.SeriesFedAssets, doc.FedAssets},
		{models.SeriesTGA, doc.TGA},
		{models.SeriesRRP, doc.RRP},
		{models.SeriesLoansFacilities, doc.LoansFacilities},
		{models.SeriesLoansHeld, doc.LoansHeld},
	} {
		for i, pair := range part.pairs {
			date, err := utils.ParseDate(pair.Date)
			if err != nil {
				diags = append(diags, Diagnostic{
					Series: part.key, Index: i, Date: pair.Date,
					Reason: "invalid date",
				})
				continue
			}
			if pair.Value == nil {
				diags = append(diags, Diagnostic{
					Series: part.key, Index: i, Date: pair.Date,
					Reason: "missing value",
				})
				continue
			}
			if !isFinite(*pair.Value) {
				diags = append(diags, Diagnostic{
					Series: part.key, Index: i, Date: pair.Date,
					Reason: "non-finite value",
				})
				continue
			}
			set[part.key] = append(set[part.key], models.Point{Date: date, Value: *pair.Value})
		}
	}

	return diags
}

// normalizeRecords contributes one point per tracked series for each
// per-day record, scaling the reverse-repo field on the way in.
func normalizeRecords(records []Record, set models.SeriesSet) []Diagnostic {
	var diags []Diagnostic

	for i, rec := range records {
		date, err := utils.ParseDate(rec.Date)
		if err != nil {
			diags = append(diags, Diagnostic{
				Index: i, Date: rec.Date, Reason: "invalid date",
			})
			continue
		}

		for _, field := range []struct {
			key   models.SeriesKey
			value *float64
			scale float64
		}{
			{models.SeriesFormula1, rec.NetLiquidity, 1},
			{models.SeriesFedAssets, rec.FedAssets, 1},
			{models.SeriesTGA, rec.TGA, 1},
			{models.SeriesRRP, rec.RRP, rrpScale},
			{models.SeriesLoansFacilities, rec.LoansFacilities, 1},
			{models.SeriesLoansHeld, rec.LoansHeld, 1},
		} {
			if field.value == nil {
				diags = append(diags, Diagnostic{
					Series: field.key, Index: i, Date: rec.Date,
					Reason: "missing field",
				})
				continue
			}
			v := *field.value * field.scale
			if !isFinite(v) {
				diags = append(diags, Diagnostic{
					Series: field.key, Index: i, Date: rec.Date,
					Reason: "non-finite value",
				})
				continue
			}
			set[field.key] = append(set[field.key], models.Point{Date: date, Value: v})
		}
	}

	return diags
}

// resolveTupleMeta reads the meta record embedded alongside a tuple-form
// document, if any.
func resolveTupleMeta(doc *TupleDocument) models.Meta {
	if doc.Meta == nil {
		return models.Meta{}
	}
	return parseMeta(doc.Meta)
}

// resolveRecordMeta prefers an explicit meta record on the first element
// and otherwise synthesizes last-updated from the final record's date.
func resolveRecordMeta(records []Record) models.Meta {
	if len(records) == 0 {
		return models.Meta{}
	}
	if records[0].Meta != nil {
		return parseMeta(records[0].Meta)
	}
	last := records[len(records)-1]
	if t, err := utils.ParseDate(last.Date); err == nil {
		return models.Meta{LastUpdated: t}
	}
	return models.Meta{}
}

func parseMeta(m *RawMeta) models.Meta {
	t, err := utils.ParseDate(m.LastUpdated)
	if err != nil {
		return models.Meta{}
	}
	return models.Meta{LastUpdated: t}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
