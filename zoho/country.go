package zoho

import "strings"

// countryNames maps ISO-ish codes and common name variants to the
// canonical English name the order API accepts. The table is a fixed
// business mapping, not a geocoding solution.
var countryNames = map[string]string{
	"gb":                       "United Kingdom",
	"uk":                       "United Kingdom",
	"united kingdom":           "United Kingdom",
	"britain":                  "United Kingdom",
	"great britain":            "United Kingdom",
	"england":                  "United Kingdom",
	"scotland":                 "United Kingdom",
	"wales":                    "United Kingdom",
	"northern ireland":         "United Kingdom",
	"us":                       "United States",
	"usa":                      "United States",
	"united states":            "United States",
	"united states of america": "United States",
	"ca":                       "Canada",
	"canada":                   "Canada",
	"au":                       "Australia",
	"australia":                "Australia",
	"de":                       "Germany",
	"germany":                  "Germany",
	"fr":                       "France",
	"france":                   "France",
	"it":                       "Italy",
	"italy":                    "Italy",
	"es":                       "Spain",
	"spain":                    "Spain",
	"nl":                       "Netherlands",
	"netherlands":              "Netherlands",
	"be":                       "Belgium",
	"belgium":                  "Belgium",
	"se":                       "Sweden",
	"sweden":                   "Sweden",
	"no":                       "Norway",
	"norway":                   "Norway",
	"dk":                       "Denmark",
	"denmark":                  "Denmark",
	"fi":                       "Finland",
	"finland":                  "Finland",
	"ie":                       "Ireland",
	"ireland":                  "Ireland",
	"pl":                       "Poland",
	"poland":                   "Poland",
	"cz":                       "Czech Republic",
	"czech republic":           "Czech Republic",
	"at":                       "Austria",
	"austria":                  "Austria",
	"ch":                       "Switzerland",
	"switzerland":              "Switzerland",
	"pt":                       "Portugal",
	"portugal":                 "Portugal",
	"gr":                       "Greece",
	"greece":                   "Greece",
	"hu":                       "Hungary",
	"hungary":                  "Hungary",
	"ro":                       "Romania",
	"romania":                  "Romania",
	"bg":                       "Bulgaria",
	"bulgaria":                 "Bulgaria",
	"hr":                       "Croatia",
	"croatia":                  "Croatia",
	"si":                       "Slovenia",
	"slovenia":                 "Slovenia",
	"sk":                       "Slovakia",
	"slovakia":                 "Slovakia",
	"lt":                       "Lithuania",
	"lithuania":                "Lithuania",
	"lv":                       "Latvia",
	"latvia":                   "Latvia",
	"ee":                       "Estonia",
	"estonia":                  "Estonia",
	"lu":                       "Luxembourg",
	"luxembourg":               "Luxembourg",
	"mt":                       "Malta",
	"malta":                    "Malta",
	"cy":                       "Cyprus",
	"cyprus":                   "Cyprus",
}

// NormalizeCountry converts a country code or name variant into the
// canonical name the order API accepts. Inputs longer than two runes
// that miss the table are assumed to already be full country names and
// pass through unchanged; anything else defaults to United Kingdom.
func NormalizeCountry(input string) string {
	if input == "" {
		return "United Kingdom"
	}

	if name, ok := countryNames[strings.ToLower(strings.TrimSpace(input))]; ok {
		return name
	}

	if len([]rune(input)) > 2 {
		return input
	}

	return "United Kingdom"
}
