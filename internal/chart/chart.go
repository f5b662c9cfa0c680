// Package chart renders time-series PNG charts for the dashboard.
package chart

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/liqboard/liqboard/pkg/models"
	"github.com/liqboard/liqboard/pkg/utils"
)

// dotThreshold is the point count below which individual markers are
// drawn on top of the line, so sparse windows stay readable.
const dotThreshold = 60

// SeriesColors maps each series to its line color.
var SeriesColors = map[models.SeriesKey]drawing.Color{
	models.SeriesFormula1:        {R: 0x1f, G: 0x77, B: 0xb4, A: 255},
	models.SeriesFedAssets:       {R: 0x2c, G: 0xa0, B: 0x2c, A: 255},
	models.SeriesTGA:             {R: 0xd6, G: 0x27, B: 0x28, A: 255},
	models.SeriesRRP:             {R: 0x94, G: 0x67, B: 0xbd, A: 255},
	models.SeriesLoansFacilities: {R: 0xff, G: 0x7f, B: 0x0e, A: 255},
	models.SeriesLoansHeld:       {R: 0x8c, G: 0x56, B: 0x4b, A: 255},
}

func lineStyle(col drawing.Color, dots bool) chart.Style {
	st := chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
	}
	if dots {
		st.DotWidth = 3
		st.DotColor = col
	}
	return st
}

// Render draws a single series as a PNG line chart and returns the
// encoded image bytes. Values are in billions of dollars; the Y axis is
// labeled with magnitude-formatted ticks.
func Render(key models.SeriesKey, series models.Series) ([]byte, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("series %s has %d points, need at least 2", key, len(series))
	}

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = chart.TimeToFloat64(p.Date)
		ys[i] = p.Value
	}

	col, ok := SeriesColors[key]
	if !ok {
		col = chart.ColorBlue
	}

	ch := chart.Chart{
		Title:  models.SeriesTitle(key),
		Width:  900,
		Height: 420,
		Background: chart.Style{
			Padding: chart.Box{Top: 16, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				f, ok := v.(float64)
				if !ok {
					return ""
				}
				return utils.FormatBillions(f)
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    models.SeriesTitle(key),
				XValues: xs,
				YValues: ys,
				Style:   lineStyle(col, len(series) < dotThreshold),
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", key, err)
	}
	return buf.Bytes(), nil
}
