package aqi

import "math"

// Category describes the severity band an index value falls into, following
// the CPCB (Indian Central Pollution Control Board) scale.
type Category struct {
	Label         string `json:"category"`
	Color         string `json:"color"`
	HealthMessage string `json:"health_message"`
}

// Category labels in increasing severity.
const (
	CategoryGood            = "Good"
	CategorySatisfactory    = "Satisfactory"
	CategoryModerate        = "Moderate"
	CategoryPoor            = "Poor"
	CategoryVeryPoor        = "Very Poor"
	CategorySevere          = "Severe"
	CategoryDataUnavailable = "Data Unavailable"
)

// categoryBands maps inclusive upper index bounds to categories, checked in
// order. Anything above the last bound is Severe.
var categoryBands = []struct {
	maxIndex int
	category Category
}{
	{50, Category{CategoryGood, "Green", "Air quality is good. Enjoy outdoor activities."}},
	{100, Category{CategorySatisfactory, "Light Green", "Minor breathing discomfort to sensitive people."}},
	{200, Category{CategoryModerate, "Yellow", "Breathing discomfort to people with lung disease."}},
	{300, Category{CategoryPoor, "Orange", "Breathing discomfort to most people on prolonged exposure."}},
	{400, Category{CategoryVeryPoor, "Red", "Respiratory illness on prolonged exposure."}},
}

var severeCategory = Category{CategorySevere, "Dark Red", "Serious health impacts. Avoid outdoor activities."}

// CategoryFor returns the severity band for an index value. Total over all
// integers: values above 400 map to Severe, and negative values fall into the
// Good band via the first inclusive check, matching historical behavior.
func CategoryFor(index int) Category {
	for _, band := range categoryBands {
		if index <= band.maxIndex {
			return band.category
		}
	}
	return severeCategory
}

// breakpoint is one band of a CPCB concentration-to-index table.
type breakpoint struct {
	concLow, concHigh   float64
	indexLow, indexHigh int
}

// CPCB breakpoint tables for 24-hour PM2.5 and PM10 (µg/m³).
var (
	pm25Breakpoints = []breakpoint{
		{0, 30, 0, 50},
		{31, 60, 51, 100},
		{61, 90, 101, 200},
		{91, 120, 201, 300},
		{121, 250, 301, 400},
		{251, 999, 401, 500},
	}
	pm10Breakpoints = []breakpoint{
		{0, 50, 0, 50},
		{51, 100, 51, 100},
		{101, 250, 101, 200},
		{251, 350, 201, 300},
		{351, 430, 301, 400},
		{431, 999, 401, 500},
	}
)

// subIndex linearly interpolates a concentration inside its breakpoint band.
// Concentrations above the top band clamp to 500; concentrations that fall in
// no band (negative, or in the one-unit gaps between bands) yield no sub-index.
func subIndex(conc float64, bands []breakpoint) (int, bool) {
	for _, b := range bands {
		if conc >= b.concLow && conc <= b.concHigh {
			idx := float64(b.indexHigh-b.indexLow)/(b.concHigh-b.concLow)*(conc-b.concLow) + float64(b.indexLow)
			return int(math.Round(idx)), true
		}
	}
	if conc > bands[len(bands)-1].concHigh {
		return 500, true
	}
	return 0, false
}

// IndexFromConcentrations computes the combined CPCB index from whichever of
// PM2.5 and PM10 are present, applying the worst-pollutant rule (maximum of
// the available sub-indices). Returns nil when neither concentration yields a
// sub-index.
func IndexFromConcentrations(pm25, pm10 *float64) *int {
	var combined *int

	if pm25 != nil {
		if idx, ok := subIndex(*pm25, pm25Breakpoints); ok {
			combined = &idx
		}
	}
	if pm10 != nil {
		if idx, ok := subIndex(*pm10, pm10Breakpoints); ok {
			if combined == nil || idx > *combined {
				combined = &idx
			}
		}
	}

	return combined
}
