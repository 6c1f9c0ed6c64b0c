package trackboard

import (
	"fmt"
	"math"
	"time"
)

// Severity is the color tier shown next to a wait time.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityNormal   Severity = "normal"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Clinical response targets. A record at or past its target is flagged.
const (
	TriageTargetMinutes = 7.0
	MessageTargetHours  = 24.0
	triageHighMinutes   = 5.0
	triageMediumMinutes = 3.0
	messageHighHours    = 18.0
	hoursPerDay         = 24
	minutesPerHour      = 60
	untriagedSLALabel   = "<7 min"
	conciergeSLALabel   = "<24 hrs"
)

// WaitAssessment is the wait-time view of one record at a given instant.
type WaitAssessment struct {
	Minutes  float64  `json:"waitMinutes"`
	Hours    float64  `json:"waitHours,omitempty"`
	Label    string   `json:"label"`
	Urgent   bool     `json:"urgent"`
	Severity Severity `json:"severity"`
}

// ClassifyWait derives the elapsed-time label, urgency flag and severity tier
// for a record that arrived at arrival and sits in section, as seen at now.
// Arrivals in the future count as zero wait.
func ClassifyWait(arrival time.Time, section Section, now time.Time) WaitAssessment {
	minutes := now.Sub(arrival).Minutes()
	if minutes < 0 {
		minutes = 0
	}

	if section == SectionConcierge {
		hours := minutes / minutesPerHour
		return WaitAssessment{
			Minutes:  minutes,
			Hours:    hours,
			Label:    hoursLabel(hours),
			Urgent:   hours >= MessageTargetHours,
			Severity: messageSeverity(hours),
		}
	}

	w := WaitAssessment{
		Minutes:  minutes,
		Label:    minutesLabel(minutes),
		Severity: SeverityNormal,
	}
	if section == SectionUntriaged {
		w.Urgent = minutes >= TriageTargetMinutes
		w.Severity = triageSeverity(minutes)
	}
	return w
}

// SLATarget returns the response target label for sections that have one.
func SLATarget(section Section) string {
	switch section {
	case SectionUntriaged:
		return untriagedSLALabel
	case SectionConcierge:
		return conciergeSLALabel
	default:
		return ""
	}
}

func minutesLabel(minutes float64) string {
	whole := int(math.Floor(minutes))
	if minutes >= minutesPerHour {
		return fmt.Sprintf("%dh %dm", whole/minutesPerHour, whole%minutesPerHour)
	}
	return fmt.Sprintf("%dm", whole)
}

func hoursLabel(hours float64) string {
	whole := int(math.Floor(hours))
	if hours >= hoursPerDay {
		if days := whole / hoursPerDay; days > 0 {
			return fmt.Sprintf("%dd %dh", days, whole%hoursPerDay)
		}
	}
	return fmt.Sprintf("%dh", whole)
}

func triageSeverity(minutes float64) Severity {
	switch {
	case minutes >= TriageTargetMinutes:
		return SeverityCritical
	case minutes >= triageHighMinutes:
		return SeverityHigh
	case minutes >= triageMediumMinutes:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func messageSeverity(hours float64) Severity {
	switch {
	case hours >= MessageTargetHours:
		return SeverityCritical
	case hours >= messageHighHours:
		return SeverityHigh
	default:
		return SeverityNormal
	}
}
