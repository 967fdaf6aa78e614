package ctdf

import (
	"math"
	"time"
)

// StatPoint is one observation of a train, field names line up with TrainPosition
type StatPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Snelheid  *float64  `json:"speed,omitempty"`
}

type TrainStats struct {
	History       []StatPoint `json:"history"`
	AverageSpeed  int         `json:"averageSpeed"`
	TotalDistance float64     `json:"totalDistance"`
}

// NewTrainStats derives the summary values from a history ordered oldest first
func NewTrainStats(history []StatPoint) *TrainStats {
	if history == nil {
		history = []StatPoint{}
	}

	return &TrainStats{
		History:       history,
		AverageSpeed:  averageSpeed(history),
		TotalDistance: totalDistanceKilometers(history),
	}
}

func averageSpeed(history []StatPoint) int {
	if len(history) == 0 {
		return 0
	}

	var total float64
	for _, point := range history {
		if point.Snelheid != nil {
			total += *point.Snelheid
		}
	}

	return int(math.Round(total / float64(len(history))))
}

func totalDistanceKilometers(history []StatPoint) float64 {
	var previous *Location
	var meters float64

	for _, point := range history {
		if point.Lat == nil || point.Lng == nil {
			continue
		}

		location := NewPoint(*point.Lat, *point.Lng)
		if previous != nil {
			meters += previous.Distance(&location)
		}
		previous = &location
	}

	return math.Round(meters/100) / 10
}
