package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/liqboard/liqboard/internal/series"
	"github.com/liqboard/liqboard/pkg/models"
	"github.com/liqboard/liqboard/pkg/utils"
)

// source describes one FRED input series and the divisor that brings it
// to billions of dollars.
type source struct {
	ID      string
	Divisor float64
}

// Balance-sheet source series. WALCL, WDTGAL and the two loan series are
// reported in millions; RRPONTSYD is already billions.
var sources = []source{
	{ID: "WALCL", Divisor: 1000},           // Fed total assets, weekly
	{ID: "WDTGAL", Divisor: 1000},          // Treasury General Account, daily
	{ID: "RRPONTSYD", Divisor: 1},          // Overnight reverse repo, daily
	{ID: "H41RESPPALDKNWW", Divisor: 1000}, // Liquidity facility loans, weekly
	{ID: "WLCFLL", Divisor: 1000},          // Loans held, weekly
}

// BuildDocument fetches all source series concurrently, aligns them on a
// daily date grid (linearly interpolating the weekly ones), drops days
// where any series is still missing, and computes the net-liquidity
// formula: Fed_Assets - TGA - RRP + Loans_Facilities + Loans_Held.
func (c *Client) BuildDocument(ctx context.Context) (*series.TupleDocument, error) {
	fetched := make(map[string][]models.Point, len(sources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			points, err := c.FetchObservations(gctx, src.ID)
			if err != nil {
				return fmt.Errorf("%s: %w", src.ID, err)
			}
			mu.Lock()
			fetched[src.ID] = points
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	grid, err := alignDaily(fetched)
	if err != nil {
		return nil, err
	}
	if len(grid.days) == 0 {
		return nil, fmt.Errorf("no overlapping observations across source series")
	}

	doc := &series.TupleDocument{
		Meta: &series.RawMeta{LastUpdated: utils.FormatDate(grid.days[len(grid.days)-1])},
	}

	for i, day := range grid.days {
		dateStr := utils.FormatDate(day)

		fedAssets := grid.values["WALCL"][i] / 1000
		tga := grid.values["WDTGAL"][i] / 1000
		rrp := grid.values["RRPONTSYD"][i]
		loansFacilities := grid.values["H41RESPPALDKNWW"][i] / 1000
		loansHeld := grid.values["WLCFLL"][i] / 1000

		formula1 := fedAssets - tga - rrp + loansFacilities + loansHeld

		doc.Formula1 = append(doc.Formula1, pair(dateStr, formula1))
		doc.FedAssets = append(doc.FedAssets, pair(dateStr, fedAssets))
		doc.TGA = append(doc.TGA, pair(dateStr, tga))
		doc.RRP = append(doc.RRP, pair(dateStr, rrp))
		doc.LoansFacilities = append(doc.LoansFacilities, pair(dateStr, loansFacilities))
		doc.LoansHeld = append(doc.LoansHeld, pair(dateStr, loansHeld))
	}

	return doc, nil
}

// WriteDataset builds the document and writes it as JSON to path.
func (c *Client) WriteDataset(ctx context.Context, path string) error {
	doc, err := c.BuildDocument(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	return nil
}

func pair(date string, v float64) series.TuplePair {
	rounded := math.Round(v*100) / 100
	return series.TuplePair{Date: date, Value: &rounded}
}

// dailyGrid holds aligned per-day values for every source series: one
// value per day per series, same day index everywhere.
type dailyGrid struct {
	days   []time.Time
	values map[string][]float64
}

// alignDaily resamples every series onto the union daily grid, linearly
// interpolating interior gaps, and keeps only the days where all series
// have a value (edges before a series' first observation or after its
// last are dropped).
func alignDaily(fetched map[string][]models.Point) (*dailyGrid, error) {
	var minDay, maxDay time.Time
	for id, points := range fetched {
		if len(points) == 0 {
			return nil, fmt.Errorf("series %s returned no observations", id)
		}
		first, last := points[0].Date, points[len(points)-1].Date
		if minDay.IsZero() || first.Before(minDay) {
			minDay = first
		}
		if last.After(maxDay) {
			maxDay = last
		}
	}

	grid := &dailyGrid{values: make(map[string][]float64, len(fetched))}

	var candidates []time.Time
	for d := minDay; !d.After(maxDay); d = d.AddDate(0, 0, 1) {
		candidates = append(candidates, d)
	}

	resampled := make(map[string][]float64, len(fetched))
	present := make([]bool, len(candidates))
	for i := range present {
		present[i] = true
	}

	for id, points := range fetched {
		row := make([]float64, len(candidates))
		for i, day := range candidates {
			v, ok := interpolate(points, day)
			if !ok {
				present[i] = false
				continue
			}
			row[i] = v
		}
		resampled[id] = row
	}

	for i, day := range candidates {
		if !present[i] {
			continue
		}
		grid.days = append(grid.days, day)
		for id := range fetched {
			grid.values[id] = append(grid.values[id], resampled[id][i])
		}
	}

	return grid, nil
}

// interpolate returns the series value at day, linearly interpolated
// between the surrounding observations. Days outside the observed span
// report ok == false.
func interpolate(points []models.Point, day time.Time) (float64, bool) {
	n := len(points)
	if n == 0 || day.Before(points[0].Date) || day.After(points[n-1].Date) {
		return 0, false
	}

	// First observation at or after day.
	idx := sort.Search(n, func(i int) bool { return !points[i].Date.Before(day) })
	if points[idx].Date.Equal(day) {
		return points[idx].Value, true
	}

	prev, next := points[idx-1], points[idx]
	span := next.Date.Sub(prev.Date).Hours() / 24
	offset := day.Sub(prev.Date).Hours() / 24
	return prev.Value + (next.Value-prev.Value)*offset/span, true
}
