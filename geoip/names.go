package geoip

// countryNames maps ISO 3166-1 alpha-2 codes to the names a registry is likely
// to use for the country, most common first. IP2Location reports official
// long forms ("Viet Nam", "Korea (Republic of)") that a map-facing registry
// rarely spells the same way.
var countryNames = map[string][]string{
	// Americas
	"US": {"United States", "USA", "United States of America", "America"},
	"CA": {"Canada"},
	"MX": {"Mexico"},
	"BR": {"Brazil", "Brasil"},
	"AR": {"Argentina"},
	"CL": {"Chile"},
	"CO": {"Colombia"},
	"PE": {"Peru"},
	// Western Europe
	"ES": {"Spain", "España"},
	"FR": {"France"},
	"DE": {"Germany", "Deutschland"},
	"IT": {"Italy", "Italia"},
	"GB": {"United Kingdom", "UK", "Great Britain", "Britain"},
	"PT": {"Portugal"},
	"NL": {"Netherlands", "The Netherlands", "Holland"},
	"BE": {"Belgium"},
	"CH": {"Switzerland"},
	"AT": {"Austria"},
	"IE": {"Ireland"},
	// Northern Europe
	"SE": {"Sweden"},
	"NO": {"Norway"},
	"DK": {"Denmark"},
	"FI": {"Finland"},
	"IS": {"Iceland"},
	"EE": {"Estonia"},
	"LV": {"Latvia"},
	"LT": {"Lithuania"},
	// Central and Eastern Europe
	"PL": {"Poland"},
	"RU": {"Russia", "Russian Federation"},
	"UA": {"Ukraine"},
	"CZ": {"Czech Republic", "Czechia"},
	"HU": {"Hungary"},
	"RO": {"Romania"},
	"BG": {"Bulgaria"},
	"HR": {"Croatia"},
	"RS": {"Serbia"},
	"SI": {"Slovenia"},
	"SK": {"Slovakia"},
	"GR": {"Greece"},
	"TR": {"Turkey", "Türkiye", "Turkiye"},
	// Asia
	"CN": {"China"},
	"JP": {"Japan"},
	"IN": {"India"},
	"KR": {"South Korea", "Republic of Korea", "Korea"},
	"TH": {"Thailand"},
	"VN": {"Vietnam", "Viet Nam"},
	"MY": {"Malaysia"},
	"SG": {"Singapore"},
	"PH": {"Philippines"},
	"ID": {"Indonesia"},
	"PK": {"Pakistan"},
	"BD": {"Bangladesh"},
	// Middle East
	"SA": {"Saudi Arabia"},
	"AE": {"United Arab Emirates", "UAE"},
	"IL": {"Israel"},
	"IR": {"Iran", "Islamic Republic of Iran"},
	"IQ": {"Iraq"},
	"AF": {"Afghanistan"},
	// Africa
	"ZA": {"South Africa"},
	"EG": {"Egypt"},
	"NG": {"Nigeria"},
	"KE": {"Kenya"},
	// Oceania
	"AU": {"Australia"},
	"NZ": {"New Zealand"},
}
