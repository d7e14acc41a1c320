// Package feed delivers barcode detections from a line-oriented
// scanner device and validates them against the configured symbologies.
package feed

import "regexp"

// Symbology is a barcode encoding standard the decoder accepts.
type Symbology string

// Supported symbologies.
const (
	Code128   Symbology = "code_128"
	EAN13     Symbology = "ean"
	EAN8      Symbology = "ean_8"
	Code39    Symbology = "code_39"
	Code39VIN Symbology = "code_39_vin"
	Codabar   Symbology = "codabar"
	UPCA      Symbology = "upc"
	UPCE      Symbology = "upc_e"
)

// DefaultSymbologies is the decoder configuration used in production.
func DefaultSymbologies() []Symbology {
	return []Symbology{Code128, EAN13, EAN8, Code39, Code39VIN, Codabar, UPCA, UPCE}
}

var symbologyPatterns = map[Symbology]*regexp.Regexp{
	Code128:   regexp.MustCompile(`^[\x20-\x7e]{1,48}$`),
	EAN13:     regexp.MustCompile(`^\d{13}$`),
	EAN8:      regexp.MustCompile(`^\d{8}$`),
	Code39:    regexp.MustCompile(`^[0-9A-Z\-. $/+%]{1,43}$`),
	Code39VIN: regexp.MustCompile(`^[0-9A-HJ-NPR-Z]{17}$`),
	Codabar:   regexp.MustCompile(`^[A-D][0-9\-$:/.+]+[A-D]$`),
	UPCA:      regexp.MustCompile(`^\d{12}$`),
	UPCE:      regexp.MustCompile(`^\d{6,8}$`),
}

// Matches reports whether the code is plausible for this symbology.
func (s Symbology) Matches(code string) bool {
	re, ok := symbologyPatterns[s]
	if !ok {
		return false
	}
	return re.MatchString(code)
}

// Valid reports whether any configured symbology accepts the code.
func Valid(code string, symbologies []Symbology) bool {
	for _, s := range symbologies {
		if s.Matches(code) {
			return true
		}
	}
	return false
}
