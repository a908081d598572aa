package geocode

import "strings"

// Address holds the address components of a reverse lookup.
type Address struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
}

// Locality returns the first non-empty of city, town, village, municipality
// and county.
func (a Address) Locality() string {
	for _, v := range []string{a.City, a.Town, a.Village, a.Municipality, a.County} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ReverseResponse is the subset of a Nominatim /reverse payload we read.
type ReverseResponse struct {
	DisplayName string   `json:"display_name"`
	Address     *Address `json:"address"`
	Error       string   `json:"error"`
}

// PlaceName builds a short place label from a reverse lookup:
// "locality, country", then locality alone, then country alone, and finally
// the first two segments of the display name.
func PlaceName(resp *ReverseResponse) (string, bool) {
	if resp == nil {
		return "", false
	}
	var locality, country string
	if resp.Address != nil {
		locality = resp.Address.Locality()
		country = strings.TrimSpace(resp.Address.Country)
	}
	switch {
	case locality != "" && country != "":
		return locality + ", " + country, true
	case locality != "":
		return locality, true
	case country != "":
		return country, true
	}

	segments := strings.Split(resp.DisplayName, ",")
	if len(segments) > 2 {
		segments = segments[:2]
	}
	name := strings.TrimSpace(strings.Join(segments, ","))
	if name == "" {
		return "", false
	}
	return name, true
}
