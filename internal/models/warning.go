package models

import (
	"strings"
	"time"
)

// Severity is the ordered urgency level of a warning. The zero value is
// SeverityUnknown, used whenever a feed supplies a severity string we do
// not recognize.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityMinor
	SeverityModerate
	SeveritySevere
	SeverityExtreme
)

func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minor":
		return SeverityMinor
	case "moderate":
		return SeverityModerate
	case "severe":
		return SeveritySevere
	case "extreme":
		return SeverityExtreme
	default:
		return SeverityUnknown
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	case SeverityExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}

// AtLeast reports whether s satisfies a minimum-severity threshold.
// Unknown never satisfies any threshold and never acts as one.
func (s Severity) AtLeast(threshold Severity) bool {
	if s == SeverityUnknown || threshold == SeverityUnknown {
		return false
	}
	return s >= threshold
}

// Category is the coarse classification of a warning, used to select the
// severity threshold of a subscription. Feeds that carry no finer
// classification tag their warnings with CategoryNone.
type Category string

const (
	CategoryWeather         Category = "weather"
	CategoryCivilProtection Category = "civil_protection"
	CategoryFlood           Category = "flood"
	CategoryNone            Category = "none"
)

func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weather":
		return CategoryWeather
	case "civil_protection", "civil protection":
		return CategoryCivilProtection
	case "flood":
		return CategoryFlood
	default:
		return CategoryNone
	}
}

// MessageType distinguishes fresh alerts from updates and cancellations
// of earlier ones.
type MessageType string

const (
	MessageTypeAlert   MessageType = "Alert"
	MessageTypeUpdate  MessageType = "Update"
	MessageTypeCancel  MessageType = "Cancel"
	MessageTypeUnknown MessageType = "Unknown"
)

func ParseMessageType(s string) MessageType {
	switch s {
	case "Alert":
		return MessageTypeAlert
	case "Update":
		return MessageTypeUpdate
	case "Cancel":
		return MessageTypeCancel
	default:
		return MessageTypeUnknown
	}
}

// Warning is one normalized alert instance as reported by a feed for the
// current polling cycle. Instances are rebuilt from the feed payload on
// every poll and never mutated; only the ID outlives the cycle, via the
// delivery records that reference it.
type Warning struct {
	ID        string // stable id from the feed (e.g. "mow.DE-NW-BN-SE030-20230212-30-000")
	Version   int    // revision of the same ID; not consulted for dedup
	StartDate time.Time
	Severity  Severity
	Category  Category
	Type      MessageType
	Title     string
	Source    string // feed slug (e.g. "dwd")
}

// DetailedWarning is the on-demand detail record for a warning id. It
// carries the target areas a warning applies to, which the map-data
// listing omits.
type DetailedWarning struct {
	ID     string
	Sender string
	Sent   time.Time
	Status string
	Infos  []WarningInfo
}

type WarningInfo struct {
	Event       string
	Severity    Severity
	Expires     time.Time
	Headline    string
	Description string // markup already stripped
	Areas       []WarningArea
}

type WarningArea struct {
	Description string
	Geocodes    []string
}

// TargetLocations flattens the area descriptions of all infos into the
// set of place names the warning applies to.
func (d *DetailedWarning) TargetLocations() []string {
	var names []string
	for _, info := range d.Infos {
		for _, area := range info.Areas {
			names = append(names, area.Description)
		}
	}
	return names
}
