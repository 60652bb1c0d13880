package models

import "time"

type Bike struct {
	ID             string
	Name           string
	Price          string
	Year           string
	Mileage        string
	Condition      string
	Type           string
	Brand          string
	Engine         string
	FuelType       string
	Transmission   string
	Color          string
	Owners         string
	Insurance      string
	Registration   string
	Description    string
	Features       []string
	Specifications map[string]any
	Images         ImageSet
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BikeDetails is the caller-editable part of a listing.
type BikeDetails struct {
	Name           string
	Price          string
	Year           string
	Mileage        string
	Condition      string
	Type           string
	Brand          string
	Engine         string
	FuelType       string
	Transmission   string
	Color          string
	Owners         string
	Insurance      string
	Registration   string
	Description    string
	Features       []string
	Specifications map[string]any
}

// Apply overwrites every editable field of b with d.
func (b *Bike) Apply(d BikeDetails) {
	b.Name = d.Name
	b.Price = d.Price
	b.Year = d.Year
	b.Mileage = d.Mileage
	b.Condition = d.Condition
	b.Type = d.Type
	b.Brand = d.Brand
	b.Engine = d.Engine
	b.FuelType = d.FuelType
	b.Transmission = d.Transmission
	b.Color = d.Color
	b.Owners = d.Owners
	b.Insurance = d.Insurance
	b.Registration = d.Registration
	b.Description = d.Description
	b.Features = d.Features
	b.Specifications = d.Specifications
	if b.Features == nil {
		b.Features = []string{}
	}
	if b.Specifications == nil {
		b.Specifications = map[string]any{}
	}
}
