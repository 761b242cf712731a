package types

import (
	"time"

	"github.com/google/uuid"
)

// Car represents a marketplace listing owned by a seller.
// Make and CarModel are stored lower-cased.
type Car struct {
	ID uuid.UUID `json:"id" db:"id"`

	Make string `json:"make" db:"make"`

	// CarModel is serialized as "model"; the Go name avoids clashing with
	// the SQL keyword and mirrors the historical API field.
	CarModel string `json:"model" db:"model"`

	Year    int     `json:"year" db:"year"`
	Mileage int     `json:"mileage" db:"mileage"`
	Price   float64 `json:"price" db:"price"`

	Description  string   `json:"description" db:"description"`
	Availability bool     `json:"availability" db:"availability"`
	Pictures     []string `json:"pictures" db:"pictures"`

	// SellerID is a weak reference into the users table; deleting the user
	// does not cascade to listings.
	SellerID uuid.UUID `json:"sellerId" db:"seller_id"`

	// Seller is populated on single-car reads only.
	Seller *Seller `json:"seller,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Range is an optional inclusive {min, max} bound on a numeric field.
// A nil bound leaves that side open.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Sort keys permitted on car listings.
const (
	SortByPrice   = "price"
	SortByMileage = "mileage"
	SortByYear    = "year"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// CarFilter is the query-side value object for the car list endpoint.
// Zero values mean "no constraint"; it is never persisted.
type CarFilter struct {
	Make         string `json:"make,omitempty"`
	CarModel     string `json:"model,omitempty"`
	Availability *bool  `json:"availability,omitempty"`

	Year    *Range `json:"year,omitempty"`
	Mileage *Range `json:"mileage,omitempty"`
	Price   *Range `json:"price,omitempty"`

	// Limit and Offset page the result window. Defaults 10/0.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortBy must be one of price, mileage, year; Order asc or desc.
	SortBy string `json:"sortBy,omitempty"`
	Order  string `json:"order,omitempty"`
}
