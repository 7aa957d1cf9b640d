package mag

import "math"

// Sample represents a single raw 3-axis magnetometer reading.
// Values are in device counts; no unit conversion is applied.
type Sample struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Magnitude returns the magnitude of the field vector in device counts.
func (s Sample) Magnitude() float64 {
	x := float64(s.X)
	y := float64(s.Y)
	z := float64(s.Z)
	return math.Sqrt(x*x + y*y + z*z)
}

// Reading is a Sample as published on MQTT by the mag producer.
// norm is the field magnitude in counts; time is RFC3339.
type Reading struct {
	Sample
	Norm float64 `json:"norm"`
	Time string  `json:"time"`
}
