package spot

import "strings"

// Placemark is a place lookup result as the client's map search returns it.
type Placemark struct {
	Name               string  `json:"name"`
	SubThoroughfare    string  `json:"sub_thoroughfare"`
	Thoroughfare       string  `json:"thoroughfare"`
	Locality           string  `json:"locality"`
	AdministrativeArea string  `json:"administrative_area"`
	Country            string  `json:"country"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
}

// FormatAddress composes "<number> <street>, <city>, <state>, <country>",
// dropping whichever parts are missing.
func FormatAddress(p Placemark) string {
	cityAndState := p.Locality
	if p.AdministrativeArea != "" {
		if cityAndState == "" {
			cityAndState = p.AdministrativeArea
		} else {
			cityAndState = cityAndState + ", " + p.AdministrativeArea
		}
	}

	address := p.SubThoroughfare
	if p.Thoroughfare != "" {
		if address == "" {
			address = p.Thoroughfare
		} else {
			address = address + " " + p.Thoroughfare
		}
	}

	switch {
	case strings.TrimSpace(address) == "" && cityAndState != "":
		address = cityAndState
	case cityAndState != "":
		address = address + ", " + cityAndState
	}

	if p.Country != "" {
		if address == "" {
			address = p.Country
		} else {
			address = address + ", " + p.Country
		}
	}
	return address
}

// DraftFromPlacemark fills a draft from a lookup result. The category is
// left for the user to pick.
func DraftFromPlacemark(p Placemark, category Category) Draft {
	return Draft{Fields: Fields{
		Name:      p.Name,
		Address:   FormatAddress(p),
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Category:  category,
	}}
}
