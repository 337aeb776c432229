package core

// Icon is a symbolic identifier from the closed icon set supported by the
// clients. Icons resolve through LookupIcon, never by indexing arbitrary
// strings into a component table.
type Icon string

const (
	IconFood          Icon = "food"
	IconTransport     Icon = "transport"
	IconHousing       Icon = "housing"
	IconUtilities     Icon = "utilities"
	IconHealth        Icon = "health"
	IconEntertainment Icon = "entertainment"
	IconShopping      Icon = "shopping"
	IconTravel        Icon = "travel"
	IconEducation     Icon = "education"
	IconSavings       Icon = "savings"
	IconOther         Icon = "other"
)

var knownIcons = map[Icon]struct{}{
	IconFood:          {},
	IconTransport:     {},
	IconHousing:       {},
	IconUtilities:     {},
	IconHealth:        {},
	IconEntertainment: {},
	IconShopping:      {},
	IconTravel:        {},
	IconEducation:     {},
	IconSavings:       {},
	IconOther:         {},
}

// LookupIcon maps an identifier to a supported icon. Unknown identifiers
// (and the empty string) fall back to IconOther.
func LookupIcon(name string) Icon {
	if _, ok := knownIcons[Icon(name)]; ok {
		return Icon(name)
	}
	return IconOther
}

// Valid reports whether i belongs to the supported set.
func (i Icon) Valid() bool {
	_, ok := knownIcons[i]
	return ok
}
