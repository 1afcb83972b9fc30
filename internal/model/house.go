// Package model holds the value types shared across the application.
package model

import "fmt"

// Address is a house address in its short and full forms. Full is always
// derived from Short and City by NewAddress, never set independently.
type Address struct {
	Short   string `json:"short"`
	Full    string `json:"full"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
}

// NewAddress builds an Address from the street-level fragment and city as
// extracted from the listing URL. The country is fixed: this deployment only
// searches Dutch cities.
func NewAddress(short, city string) Address {
	return Address{
		Short: short,
		Full:  fmt.Sprintf("%s, %s, Netherlands", short, city),
		City:  city,
	}
}

// House is one enriched listing. Constructed once per search hit and passed
// by value from there on.
type House struct {
	ID                string  `json:"id"`
	URL               string  `json:"url"`
	Price             int     `json:"price"`
	Address           Address `json:"address"`
	SOfficeTravelTime string  `json:"s_office_travel_time"`
	VOfficeTravelTime string  `json:"v_office_travel_time"`
	LifeLevelScore    float64 `json:"life_level_score"`
}
