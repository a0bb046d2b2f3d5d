package entities

import "fmt"

// Location is a postal address of a supply chain site
type Location struct {
	Address    string
	City       string
	Country    string
	PostalCode string
}

func (l Location) String() string {
	return fmt.Sprintf("%s, %s, %s %s", l.Address, l.City, l.Country, l.PostalCode)
}
