package geoip

import (
	"errors"
	"net/netip"
	"strings"

	"github.com/pevans/newsmap/countries"
)

// Lookup errors
var (
	ErrPrivateAddress  = errors.New("address is not publicly routable")
	ErrUnknownLocation = errors.New("location unknown")
)

// CountryLookup resolves an address to its country's ISO short code and
// name.
type CountryLookup interface {
	Country(ip netip.Addr) (short, name string, err error)
}

// Location is where a visitor appears to be.
type Location struct {
	IP           string `json:"ip"`
	CountryShort string `json:"country_short"`
	CountryName  string `json:"country_name"`
	Code         string `json:"code,omitempty"`
}

// Locator resolves addresses to countries in the registry.
type Locator struct {
	lookup   CountryLookup
	registry *countries.Registry
}

// NewLocator creates a Locator. registry may be nil, in which case Code is
// never set.
func NewLocator(lookup CountryLookup, registry *countries.Registry) *Locator {
	return &Locator{lookup: lookup, registry: registry}
}

// Locate looks up ip. Code is the registry code for the country name, or for
// one of the country's common names when IP2Location uses an official long
// form. It is empty when the registry knows none of them.
func (l *Locator) Locate(ip netip.Addr) (Location, error) {
	ip = ip.Unmap()
	if !ip.IsValid() || ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return Location{}, ErrPrivateAddress
	}

	short, name, err := l.lookup.Country(ip)
	if err != nil {
		return Location{}, err
	}
	// IP2Location uses "-" for unallocated ranges
	if short == "" || short == "-" {
		return Location{}, ErrUnknownLocation
	}

	loc := Location{
		IP:           ip.String(),
		CountryShort: short,
		CountryName:  name,
	}
	if l.registry != nil {
		loc.Code = l.registryCode(short, name)
	}
	return loc, nil
}

func (l *Locator) registryCode(short, name string) string {
	if code, ok := l.registry.CodeForName(name); ok {
		return code
	}
	for _, alt := range countryNames[strings.ToUpper(short)] {
		if code, ok := l.registry.CodeForName(alt); ok {
			return code
		}
	}
	return ""
}
