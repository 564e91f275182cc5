package adapter

import "strings"

// SafetyMode is the numeric safety policy code forwarded to the
// firmware. The adapter enforces nothing; the mode is opaque here.
type SafetyMode uint16

const (
	SafetyNone     SafetyMode = 0x00
	SafetyNoOutput SafetyMode = 0x01
	SafetyHonda    SafetyMode = 0x02
	SafetyToyota   SafetyMode = 0x03
	SafetyGM       SafetyMode = 0x04
	SafetyTesla    SafetyMode = 0x05
)

var safetyNames = map[SafetyMode]string{
	SafetyNone:     "none",
	SafetyNoOutput: "no_output",
	SafetyHonda:    "honda",
	SafetyToyota:   "toyota",
	SafetyGM:       "gm",
	SafetyTesla:    "tesla",
}

func (m SafetyMode) String() string {
	if name, ok := safetyNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseSafetyMode resolves a mode by name, case-insensitively.
func ParseSafetyMode(name string) (SafetyMode, bool) {
	name = strings.ToLower(name)
	for mode, n := range safetyNames {
		if n == name {
			return mode, true
		}
	}
	return SafetyNone, false
}
