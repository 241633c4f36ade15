package odom

import (
	"fmt"
	"math"
)

// inch is length of one inch in metres
const inch = 0.0254

// Dimensions describes platform geometry. Lengths are in metres.
type Dimensions struct {
	// TrackWidth is distance between left and right drive wheels
	TrackWidth float64 `yaml:"track_width"`
	// DriveWheelDiameter is drive wheel diameter
	DriveWheelDiameter float64 `yaml:"drive_wheel_diameter"`
	// DriveGearRatio is drive wheel to encoder gear ratio
	DriveGearRatio float64 `yaml:"drive_gear_ratio"`
	// VertWheelDiameter is vertical tracking wheel diameter
	VertWheelDiameter float64 `yaml:"vert_wheel_diameter"`
	// VertOffset is signed lateral offset of vertical tracking wheel from rotation centre, positive to the left
	VertOffset float64 `yaml:"vert_offset"`
	// VertGearRatio is vertical tracking wheel to encoder gear ratio
	VertGearRatio float64 `yaml:"vert_gear_ratio"`
	// HoriWheelDiameter is horizontal tracking wheel diameter
	HoriWheelDiameter float64 `yaml:"hori_wheel_diameter"`
	// HoriOffset is signed forward offset of horizontal tracking wheel from rotation centre
	HoriOffset float64 `yaml:"hori_offset"`
	// HoriGearRatio is horizontal tracking wheel to encoder gear ratio
	HoriGearRatio float64 `yaml:"hori_gear_ratio"`
}

// DefaultDimensions returns dimensions of the reference platform:
// 13.5" track width, 4" drive wheels and 2" tracking wheels mounted 2" off centre.
func DefaultDimensions() Dimensions {
	return Dimensions{
		TrackWidth:         13.5 * inch,
		DriveWheelDiameter: 4.0 * inch,
		DriveGearRatio:     1.0,
		VertWheelDiameter:  2.0 * inch,
		VertOffset:         2.0 * inch,
		VertGearRatio:      1.0,
		HoriWheelDiameter:  2.0 * inch,
		HoriOffset:         2.0 * inch,
		HoriGearRatio:      1.0,
	}
}

// Validate returns error if any of the dimensions is invalid.
func (d Dimensions) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"track width", d.TrackWidth},
		{"drive wheel diameter", d.DriveWheelDiameter},
		{"drive gear ratio", d.DriveGearRatio},
		{"vertical wheel diameter", d.VertWheelDiameter},
		{"vertical gear ratio", d.VertGearRatio},
		{"horizontal wheel diameter", d.HoriWheelDiameter},
		{"horizontal gear ratio", d.HoriGearRatio},
	} {
		if !(v.val > 0) || math.IsInf(v.val, 0) {
			return fmt.Errorf("invalid %s: %v", v.name, v.val)
		}
	}

	if math.IsNaN(d.VertOffset) || math.IsInf(d.VertOffset, 0) {
		return fmt.Errorf("invalid vertical wheel offset: %v", d.VertOffset)
	}

	if math.IsNaN(d.HoriOffset) || math.IsInf(d.HoriOffset, 0) {
		return fmt.Errorf("invalid horizontal wheel offset: %v", d.HoriOffset)
	}

	return nil
}

// WheelSpeed converts encoder angular rate [rad/s] of a wheel with given diameter
// and wheel to encoder gear ratio into linear speed [m/s].
func WheelSpeed(rate, diameter, gearRatio float64) float64 {
	return rate * gearRatio * diameter / 2
}

// DriveSpeed converts drive encoder angular rate into linear wheel speed.
func (d Dimensions) DriveSpeed(rate float64) float64 {
	return WheelSpeed(rate, d.DriveWheelDiameter, d.DriveGearRatio)
}

// VertSpeed converts vertical tracking encoder angular rate into linear wheel speed.
func (d Dimensions) VertSpeed(rate float64) float64 {
	return WheelSpeed(rate, d.VertWheelDiameter, d.VertGearRatio)
}

// HoriSpeed converts horizontal tracking encoder angular rate into linear wheel speed.
func (d Dimensions) HoriSpeed(rate float64) float64 {
	return WheelSpeed(rate, d.HoriWheelDiameter, d.HoriGearRatio)
}
