package countries

// defaultEntries is the product's country table. CHI for Chile predates the
// admin panel and is kept so existing records keep matching.
var defaultEntries = []Entry{
	// Americas
	{"USA", "United States"},
	{"CAN", "Canada"},
	{"MEX", "Mexico"},
	{"BRA", "Brazil"},
	{"ARG", "Argentina"},
	{"CHI", "Chile"},
	{"COL", "Colombia"},
	{"PER", "Peru"},
	// Western Europe
	{"ESP", "Spain"},
	{"FRA", "France"},
	{"DEU", "Germany"},
	{"ITA", "Italy"},
	{"GBR", "United Kingdom"},
	{"PRT", "Portugal"},
	{"NLD", "Netherlands"},
	{"BEL", "Belgium"},
	{"CHE", "Switzerland"},
	{"AUT", "Austria"},
	{"IRL", "Ireland"},
	// Northern Europe
	{"SWE", "Sweden"},
	{"NOR", "Norway"},
	{"DNK", "Denmark"},
	{"FIN", "Finland"},
	{"ISL", "Iceland"},
	{"EST", "Estonia"},
	{"LVA", "Latvia"},
	{"LTU", "Lithuania"},
	// Eastern and Southern Europe
	{"POL", "Poland"},
	{"RUS", "Russia"},
	{"UKR", "Ukraine"},
	{"GRC", "Greece"},
	{"CZE", "Czech Republic"},
	{"HUN", "Hungary"},
	{"ROU", "Romania"},
	{"BGR", "Bulgaria"},
	{"HRV", "Croatia"},
	{"SRB", "Serbia"},
	{"SVN", "Slovenia"},
	{"SVK", "Slovakia"},
	// Asia and Oceania
	{"CHN", "China"},
	{"JPN", "Japan"},
	{"IND", "India"},
	{"KOR", "South Korea"},
	{"AUS", "Australia"},
	{"NZL", "New Zealand"},
	{"THA", "Thailand"},
	{"VNM", "Vietnam"},
	{"MYS", "Malaysia"},
	{"SGP", "Singapore"},
	{"PHL", "Philippines"},
	{"IDN", "Indonesia"},
	{"PAK", "Pakistan"},
	{"BGD", "Bangladesh"},
	{"AFG", "Afghanistan"},
	// Africa and Middle East
	{"ZAF", "South Africa"},
	{"EGY", "Egypt"},
	{"NGA", "Nigeria"},
	{"KEN", "Kenya"},
	{"SAU", "Saudi Arabia"},
	{"ARE", "United Arab Emirates"},
	{"ISR", "Israel"},
	{"TUR", "Turkey"},
	{"IRN", "Iran"},
	{"IRQ", "Iraq"},
}

// Default returns a registry seeded with the product's country table.
func Default() *Registry {
	r, err := NewRegistry(defaultEntries)
	if err != nil {
		panic("countries: invalid default table: " + err.Error())
	}
	return r
}
