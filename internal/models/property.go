package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyStatus values.
const (
	PropertyAvailable = "available"
	PropertyHold      = "hold"
	PropertySold      = "sold"
	PropertyRented    = "rented"
)

// Property types.
const (
	PropertyApartment  = "apartment"
	PropertyVilla      = "villa"
	PropertyPlot       = "plot"
	PropertyStudio     = "studio"
	PropertyPenthouse  = "penthouse"
	PropertyOffice     = "office"
	PropertyCommercial = "commercial"
)

// Listing types.
const (
	ListingSale = "sale"
	ListingRent = "rent"
	ListingBoth = "both"
)

// Property is a tenant-scoped property listing.
type Property struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Address      string     `json:"address,omitempty"`
	City         string     `json:"city,omitempty"`
	State        string     `json:"state,omitempty"`
	Pincode      string     `json:"pincode,omitempty"`
	PropertyType string     `json:"property_type"`
	ListingType  string     `json:"listing_type"`
	Price        int64      `json:"price"`
	RentPrice    *int64     `json:"rent_price,omitempty"`
	Area         int        `json:"area"`
	Bedrooms     *int       `json:"bedrooms,omitempty"`
	Bathrooms    *int       `json:"bathrooms,omitempty"`
	Parking      *int       `json:"parking,omitempty"`
	Status       string     `json:"status"`
	Amenities    []string   `json:"amenities"`
	CreatedBy    uuid.UUID  `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
