package series

import (
	"time"

	"github.com/liqboard/liqboard/pkg/models"
	"github.com/liqboard/liqboard/pkg/utils"
)

// Preset range keys recognized by ResolveWindow.
const (
	Range1W  = "1w"
	Range2W  = "2w"
	Range30D = "30d"
	Range3M  = "3m"
	Range6M  = "6m"
	Range1Y  = "1y"
	RangeAll = "all"
)

// PresetKeys lists the preset range keys in UI order.
var PresetKeys = []string{Range1W, Range2W, Range30D, Range3M, Range6M, Range1Y, RangeAll}

// allEpoch is the fixed window start used by the "all" preset.
var allEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// SelectorKind discriminates the two selector variants.
type SelectorKind int

const (
	KindPreset SelectorKind = iota
	KindCustom
)

// Selector is the active date-range specification: a named preset, or a
// custom window with an explicit start and optional end. Exactly one
// variant is meaningful, according to Kind.
type Selector struct {
	Kind   SelectorKind
	Preset string    // preset key, used when Kind == KindPreset
	Start  time.Time // custom start; zero means absent
	End    time.Time // custom end; zero means "now"
}

// PresetSelector returns a preset selector for the given range key.
func PresetSelector(key string) Selector {
	return Selector{Kind: KindPreset, Preset: key}
}

// CustomSelector returns a custom selector. A zero end leaves the window
// open-ended (resolved to "now"); a zero start makes the selector
// unresolvable and filtering is skipped.
func CustomSelector(start, end time.Time) Selector {
	return Selector{Kind: KindCustom, Start: start, End: end}
}

// ResolveWindow turns a selector into a concrete [start, end] calendar
// window relative to now. For preset keys the end is now and the start
// is shifted back by the preset's span; unknown keys fall back to the
// 30d rule. For custom selectors a missing start yields ok == false,
// which callers treat as "skip filtering, retain the prior view".
func ResolveWindow(sel Selector, now time.Time) (start, end time.Time, ok bool) {
	today := utils.DateOnly(now)

	if sel.Kind == KindCustom {
		if sel.Start.IsZero() {
			return time.Time{}, time.Time{}, false
		}
		start = utils.DateOnly(sel.Start)
		end = today
		if !sel.End.IsZero() {
			end = utils.DateOnly(sel.End)
		}
		return start, end, true
	}

	end = today
	switch sel.Preset {
	case Range1W:
		start = today.AddDate(0, 0, -7)
	case Range2W:
		start = today.AddDate(0, 0, -14)
	case Range30D:
		start = today.AddDate(0, 0, -30)
	case Range3M:
		start = today.AddDate(0, -3, 0)
	case Range6M:
		start = today.AddDate(0, -6, 0)
	case Range1Y:
		start = today.AddDate(-1, 0, 0)
	case RangeAll:
		start = allEpoch
	default:
		// Default-case policy: unknown keys behave like 30d.
		start = today.AddDate(0, 0, -30)
	}
	return start, end, true
}

// Filter keeps, for every tracked series independently, the points whose
// calendar date d satisfies start <= d <= end (inclusive both ends). A
// series absent or empty in the input yields an empty output series.
// The result is always a fresh set; the input is never mutated.
func Filter(set models.SeriesSet, start, end time.Time) models.SeriesSet {
	out := make(models.SeriesSet, len(models.SeriesKeys))
	for _, k := range models.SeriesKeys {
		src := set[k]
		dst := models.Series{}
		for _, p := range src {
			d := utils.DateOnly(p.Date)
			if !d.Before(start) && !d.After(end) {
				dst = append(dst, p)
			}
		}
		out[k] = dst
	}
	return out
}

// Recompute is the pure entry point the host invokes whenever the raw
// set or the selector changes: it resolves the window against now and
// filters. ok is false when the selector cannot be resolved (custom
// without a start), in which case no new set is produced.
func Recompute(set models.SeriesSet, sel Selector, now time.Time) (models.SeriesSet, bool) {
	start, end, ok := ResolveWindow(sel, now)
	if !ok {
		return nil, false
	}
	return Filter(set, start, end), true
}
