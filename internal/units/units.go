// Package units handles temperature unit conversion for display. The engine
// and the store always work in Celsius; conversion happens at the API edge.
package units

import "fmt"

// Temperature units recognised by the -units flag and the API.
const (
	Celsius    = "celsius"
	Fahrenheit = "fahrenheit"
)

// Valid reports whether u names a supported temperature unit.
func Valid(u string) bool {
	return u == Celsius || u == Fahrenheit
}

// FromCelsius converts a Celsius value to the target unit. Unknown units
// pass the value through unchanged.
func FromCelsius(c float64, target string) float64 {
	if target == Fahrenheit {
		return c*9.0/5.0 + 32.0
	}
	return c
}

// ToCelsius converts a value in the given unit back to Celsius.
func ToCelsius(v float64, from string) float64 {
	if from == Fahrenheit {
		return (v - 32.0) * 5.0 / 9.0
	}
	return v
}

// Symbol returns the display suffix for a unit.
func Symbol(u string) string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

// Format renders a temperature with one decimal and the unit symbol.
func Format(c float64, target string) string {
	return fmt.Sprintf("%.1f%s", FromCelsius(c, target), Symbol(target))
}
