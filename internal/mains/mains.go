// Package mains resolves the local electrical line frequency (50 or 60 Hz)
// from the system timezone. The scope uses it as the default sync frequency
// when a channel has no active notes: triggering on the line frequency keeps
// hum and idle noise stable on screen, the classic oscilloscope line-trigger
// behaviour.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultHz is the worldwide-majority line frequency, used whenever
// detection falls through.
const DefaultHz = 50

// Frequency returns the local line frequency in Hz. Detection failures
// resolve to DefaultHz.
func Frequency() int {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return DefaultHz
	}
	return FrequencyForTimezone(timezone)
}

// FrequencyForTimezone maps an IANA timezone to its country's line
// frequency. Zones with no country association (UTC, GMT, Etc/*) resolve to
// DefaultHz.
func FrequencyForTimezone(timezone string) int {
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return DefaultHz
	}

	countries, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return DefaultHz
	}
	country, err := countries.GetCountry(timezone)
	if err != nil {
		return DefaultHz
	}

	if sixtyHzCountries[country] {
		return 60
	}
	// Japan is split 50/60 by region; the 50Hz Tokyo grid covers the most
	// people, so the default applies.
	return DefaultHz
}

// sixtyHzCountries is the set of countries on 60Hz grids; everywhere else
// runs 50Hz. Compiled from the mains-electricity country tables.
var sixtyHzCountries = map[string]bool{
	"United States":       true,
	"Canada":              true,
	"Mexico":              true,
	"Belize":              true,
	"Costa Rica":          true,
	"El Salvador":         true,
	"Guatemala":           true,
	"Honduras":            true,
	"Nicaragua":           true,
	"Panama":              true,
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,
	"Brazil":              true, // mixed grid, 60Hz predominant
	"Colombia":            true,
	"Ecuador":             true,
	"Guyana":              true,
	"Peru":                true,
	"Suriname":            true,
	"Venezuela":           true,
	"South Korea":         true,
	"Taiwan":              true,
	"Philippines":         true,
	"Saudi Arabia":        true,
	"Guam":                true,
	"American Samoa":      true,
	"Marshall Islands":    true,
	"Micronesia":          true,
	"Palau":               true,
}
