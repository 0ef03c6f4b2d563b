package models

import "time"

// ThrottlingLevel is the severity of admission throttling.
type ThrottlingLevel int

const (
	ThrottlingNone ThrottlingLevel = iota
	ThrottlingLow
	ThrottlingMedium
	ThrottlingHigh
)

var strThrottlingLevels = [...]string{
	ThrottlingNone:   "None",
	ThrottlingLow:    "Low",
	ThrottlingMedium: "Medium",
	ThrottlingHigh:   "High",
}

func (l ThrottlingLevel) String() string {
	if l < ThrottlingNone || l > ThrottlingHigh {
		return "Unknown"
	}
	return strThrottlingLevels[l]
}

func (l ThrottlingLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ThrottlingRequest describes the work a caller is about to submit.
// The current throttling policy only looks at host load, the fields are recorded for logging.
type ThrottlingRequest struct {
	RequesterID  string       `json:"RequesterID"`
	ResourceType ResourceType `json:"ResourceType,omitempty"`
	Priority     int          `json:"Priority"`
}

// ThrottlingResult is the admission guidance for a single request.
type ThrottlingResult struct {
	ShouldThrottle   bool            `json:"ShouldThrottle"`
	Level            ThrottlingLevel `json:"Level"`
	RecommendedDelay time.Duration   `json:"RecommendedDelay"`
	Reason           string          `json:"Reason,omitempty"`
}
