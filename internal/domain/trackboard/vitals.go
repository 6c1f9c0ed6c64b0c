package trackboard

import (
	"fmt"
	"strconv"
	"strings"
)

// VitalStatus is the three-level status of a single vital sign.
type VitalStatus string

const (
	VitalNormal   VitalStatus = "normal"
	VitalAbnormal VitalStatus = "abnormal"
	VitalCritical VitalStatus = "critical"
)

// PainConcern is the tier for pain scores, which have no critical level.
type PainConcern string

const (
	PainLow    PainConcern = "low"
	PainMedium PainConcern = "medium"
	PainHigh   PainConcern = "high"
)

type VitalName string

const (
	VitalHeartRate        VitalName = "heartRate"
	VitalTemperature      VitalName = "temperature"
	VitalOxygenSaturation VitalName = "oxygenSaturation"
	VitalBloodPressure    VitalName = "bloodPressure"
	VitalPainScale        VitalName = "painScale"
	VitalRespiratoryRate  VitalName = "respiratoryRate"
)

// ThresholdTable holds every clinical cutoff used to classify vitals.
// There is exactly one table; card views must not carry their own.
type ThresholdTable struct {
	HeartRateCritical   float64 // bpm, at or above
	HeartRateAbnormal   float64 // bpm, above
	TemperatureCritical float64 // °F, above
	TemperatureAbnormal float64 // °F, above
	TemperatureLow      float64 // °F, below
	OxygenCritical      float64 // %, below
	OxygenAbnormal      float64 // %, at or below
	SystolicCritical    int     // mmHg, above
	DiastolicCritical   int     // mmHg, above
	SystolicAbnormal    int     // mmHg, above
	DiastolicAbnormal   int     // mmHg, above
	PainHighConcern     int     // at or above
	PainMediumConcern   int     // at or above
}

var Thresholds = ThresholdTable{
	HeartRateCritical:   120,
	HeartRateAbnormal:   100,
	TemperatureCritical: 103,
	TemperatureAbnormal: 101,
	TemperatureLow:      96,
	OxygenCritical:      90,
	OxygenAbnormal:      92,
	SystolicCritical:    200,
	DiastolicCritical:   110,
	SystolicAbnormal:    180,
	DiastolicAbnormal:   100,
	PainHighConcern:     7,
	PainMediumConcern:   4,
}

func (t ThresholdTable) HeartRate(bpm float64) VitalStatus {
	switch {
	case bpm >= t.HeartRateCritical:
		return VitalCritical
	case bpm > t.HeartRateAbnormal:
		return VitalAbnormal
	default:
		return VitalNormal
	}
}

func (t ThresholdTable) Temperature(f float64) VitalStatus {
	switch {
	case f > t.TemperatureCritical:
		return VitalCritical
	case f > t.TemperatureAbnormal, f < t.TemperatureLow:
		return VitalAbnormal
	default:
		return VitalNormal
	}
}

func (t ThresholdTable) OxygenSaturation(pct float64) VitalStatus {
	switch {
	case pct < t.OxygenCritical:
		return VitalCritical
	case pct <= t.OxygenAbnormal:
		return VitalAbnormal
	default:
		return VitalNormal
	}
}

func (t ThresholdTable) BloodPressure(systolic, diastolic int) VitalStatus {
	switch {
	case systolic > t.SystolicCritical || diastolic > t.DiastolicCritical:
		return VitalCritical
	case systolic > t.SystolicAbnormal || diastolic > t.DiastolicAbnormal:
		return VitalAbnormal
	default:
		return VitalNormal
	}
}

func (t ThresholdTable) Pain(score int) PainConcern {
	switch {
	case score >= t.PainHighConcern:
		return PainHigh
	case score >= t.PainMediumConcern:
		return PainMedium
	default:
		return PainLow
	}
}

// ParseBloodPressure splits a "systolic/diastolic" reading.
func ParseBloodPressure(reading string) (systolic, diastolic int, ok bool) {
	sys, dia, found := strings.Cut(strings.TrimSpace(reading), "/")
	if !found {
		return 0, 0, false
	}
	s, err := strconv.Atoi(strings.TrimSpace(sys))
	if err != nil {
		return 0, 0, false
	}
	d, err := strconv.Atoi(strings.TrimSpace(dia))
	if err != nil {
		return 0, 0, false
	}
	return s, d, true
}

// ParseVital classifies a raw vital reading using Thresholds. Numeric vitals
// accept decimals. It fails when value cannot be read for name; unknown names
// are normal. A pain score is abnormal at high concern and never critical; use
// ClassifyPain for its own tier.
func ParseVital(name VitalName, value string) (VitalStatus, error) {
	value = strings.TrimSpace(value)
	if name == VitalBloodPressure {
		sys, dia, ok := ParseBloodPressure(value)
		if !ok {
			return VitalNormal, fmt.Errorf("bloodPressure must be systolic/diastolic, got %q", value)
		}
		return Thresholds.BloodPressure(sys, dia), nil
	}

	var classify func(float64) VitalStatus
	switch name {
	case VitalHeartRate:
		classify = Thresholds.HeartRate
	case VitalTemperature:
		classify = Thresholds.Temperature
	case VitalOxygenSaturation:
		classify = Thresholds.OxygenSaturation
	case VitalPainScale:
		classify = func(f float64) VitalStatus {
			if f >= float64(Thresholds.PainHighConcern) {
				return VitalAbnormal
			}
			return VitalNormal
		}
	case VitalRespiratoryRate:
		// no thresholds are defined for respiratory rate
		classify = func(float64) VitalStatus { return VitalNormal }
	default:
		return VitalNormal, nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return VitalNormal, fmt.Errorf("%s must be a number, got %q", name, value)
	}
	return classify(f), nil
}

// ClassifyVital is ParseVital with unreadable values treated as normal.
func ClassifyVital(name VitalName, value string) VitalStatus {
	status, _ := ParseVital(name, value)
	return status
}

// ClassifyPain returns the concern tier for a 0-10 pain score.
func ClassifyPain(score int) PainConcern {
	return Thresholds.Pain(score)
}

// VitalsAssessment is the per-vital status of one record. Fields are nil
// when the vital was not recorded.
type VitalsAssessment struct {
	BloodPressure    *VitalStatus `json:"bloodPressure,omitempty"`
	HeartRate        *VitalStatus `json:"heartRate,omitempty"`
	Temperature      *VitalStatus `json:"temperature,omitempty"`
	OxygenSaturation *VitalStatus `json:"oxygenSaturation,omitempty"`
	RespiratoryRate  *VitalStatus `json:"respiratoryRate,omitempty"`
	Pain             *PainConcern `json:"pain,omitempty"`
}

// Worst returns the most severe status across the recorded vitals.
func (a VitalsAssessment) Worst() VitalStatus {
	worst := VitalNormal
	for _, s := range []*VitalStatus{a.BloodPressure, a.HeartRate, a.Temperature, a.OxygenSaturation, a.RespiratoryRate} {
		if s == nil {
			continue
		}
		if *s == VitalCritical {
			return VitalCritical
		}
		if *s == VitalAbnormal {
			worst = VitalAbnormal
		}
	}
	return worst
}

// AssessVitals classifies every recorded vital in v.
func AssessVitals(v *Vitals) VitalsAssessment {
	var a VitalsAssessment
	if v == nil {
		return a
	}
	if v.BloodPressure != nil {
		s := ClassifyVital(VitalBloodPressure, *v.BloodPressure)
		a.BloodPressure = &s
	}
	if v.HeartRate != nil {
		s := Thresholds.HeartRate(float64(*v.HeartRate))
		a.HeartRate = &s
	}
	if v.Temperature != nil {
		s := Thresholds.Temperature(*v.Temperature)
		a.Temperature = &s
	}
	if v.OxygenSaturation != nil {
		s := Thresholds.OxygenSaturation(float64(*v.OxygenSaturation))
		a.OxygenSaturation = &s
	}
	if v.RespiratoryRate != nil {
		// no thresholds are defined for respiratory rate
		s := VitalNormal
		a.RespiratoryRate = &s
	}
	if v.PainScale != nil {
		c := Thresholds.Pain(*v.PainScale)
		a.Pain = &c
	}
	return a
}
