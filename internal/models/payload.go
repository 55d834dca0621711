// ABOUTME: Ingestion payload types matching the Health Auto Export JSON document.
// ABOUTME: A payload carries named metric series of timestamped samples.
package models

import "encoding/json"

// Payload is one exported health document.
type Payload struct {
	Data PayloadData `json:"data"`
}

// PayloadData groups metric series and workouts.
type PayloadData struct {
	Metrics  []MetricSeries    `json:"metrics"`
	Workouts []json.RawMessage `json:"workouts,omitempty"`
}

// MetricSeries is the list of samples recorded for one metric name.
type MetricSeries struct {
	Name  string   `json:"name"`
	Units string   `json:"units"`
	Data  []Sample `json:"data"`
}

// Sample is one timestamped measurement. Sleep samples report their
// duration as totalSleep or asleep instead of qty.
type Sample struct {
	Date       string   `json:"date"`
	Qty        *float64 `json:"qty,omitempty"`
	Source     string   `json:"source,omitempty"`
	TotalSleep *float64 `json:"totalSleep,omitempty"`
	Asleep     *float64 `json:"asleep,omitempty"`
}

// Value returns the sample's quantity, or nil when it carries none.
func (s Sample) Value() *float64 {
	switch {
	case s.Qty != nil:
		return s.Qty
	case s.TotalSleep != nil:
		return s.TotalSleep
	case s.Asleep != nil:
		return s.Asleep
	}
	return nil
}
