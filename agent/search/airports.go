package search

import "strings"

var cityCodes = map[string]string{
	"porto":       "OPO",
	"london":      "LON",
	"paris":       "PAR",
	"madrid":      "MAD",
	"barcelona":   "BCN",
	"rome":        "ROM",
	"amsterdam":   "AMS",
	"berlin":      "BER",
	"new york":    "NYC",
	"nyc":         "NYC",
	"los angeles": "LAX",
	"lisbon":      "LIS",
	"frankfurt":   "FRA",
	"munich":      "MUC",
	"milan":       "MIL",
	"zurich":      "ZRH",
	"vienna":      "VIE",
	"prague":      "PRG",
	"budapest":    "BUD",
	"dublin":      "DUB",
}

// CityCode maps a city name to its IATA city code. Unknown cities fall back
// to their first three letters, upper-cased.
func CityCode(city string) string {
	name := strings.ToLower(strings.TrimSpace(city))
	if code, ok := cityCodes[name]; ok {
		return code
	}
	upper := strings.ToUpper(name)
	if len(upper) <= 3 {
		return upper
	}
	return upper[:3]
}
