package types

import "strconv"

// NotAvailable is rendered in place of any absent location field
const NotAvailable = "N/A"

// Location represents geolocation metadata of an address.
// Empty strings and nil coordinates mean the field is absent.
type Location struct {
	Country     string   `json:"country,omitempty"`
	CountryCode string   `json:"country_code,omitempty"`
	City        string   `json:"city,omitempty"`
	Region      string   `json:"region,omitempty"`
	ISP         string   `json:"isp,omitempty"`
	Org         string   `json:"org,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Timezone    string   `json:"timezone,omitempty"`
}

// LocationField is a labelled location value ready for display
type LocationField struct {
	Label string
	Value string
}

// IsEmpty reports whether no field is present
func (l Location) IsEmpty() bool {
	return l == Location{}
}

// Fields returns every location field in display order, with absent
// values replaced by NotAvailable.
func (l Location) Fields() []LocationField {
	return []LocationField{
		{"Country", orNA(l.Country)},
		{"Country Code", orNA(l.CountryCode)},
		{"City", orNA(l.City)},
		{"Region", orNA(l.Region)},
		{"ISP", orNA(l.ISP)},
		{"Organization", orNA(l.Org)},
		{"Latitude", coordOrNA(l.Lat)},
		{"Longitude", coordOrNA(l.Lon)},
		{"Timezone", orNA(l.Timezone)},
	}
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func coordOrNA(f *float64) string {
	if f == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
