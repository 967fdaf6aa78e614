package ctdf

import "time"

// JourneyDetail is the reduced view of an NS journey the front end shows for a train
type JourneyDetail struct {
	NextStopDestination      string    `json:"nextStopDestination"`
	DelayInSeconds           int       `json:"delayInSeconds"`
	IsLastStop               bool      `json:"isLastStop,omitempty"`
	PlannedDurationInMinutes *int      `json:"plannedDurationInMinutes,omitempty"`
	LastUpdated              time.Time `json:"lastUpdated"`
}
