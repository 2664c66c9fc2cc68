package normalize

import (
	"strings"

	postal "github.com/openvenues/gopostal/parser"
)

// Components holds the comparable parts of an address
type Components struct {
	Street string
	Unit   string
	City   string
	State  string
	Zip    string
}

// ParseComponents splits a raw address into parts using libpostal. Used by the
// CSV importer when a source file carries only a single-line address; the
// matching pipeline itself relies on CanonicalAddress and never calls libpostal.
func ParseComponents(raw string) Components {
	parsed := postal.ParseAddress(raw)

	var c Components
	var streetParts []string

	for _, comp := range parsed {
		value := strings.ToUpper(comp.Value)
		switch comp.Label {
		case "house_number", "road", "house":
			streetParts = append(streetParts, value)
		case "unit", "level", "staircase":
			if c.Unit == "" {
				c.Unit = value
			}
		case "city", "city_district", "suburb":
			if c.City == "" {
				c.City = value
			}
		case "state":
			c.State = value
		case "postcode":
			c.Zip = value
		}
	}

	c.Street = strings.Join(streetParts, " ")
	return c
}
