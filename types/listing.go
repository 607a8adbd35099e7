package types

import "time"

// Listing represents a tool or product posted on the marketplace.
//
// A listing may be anonymous: OwnerID is nil when it was created without
// authentication. The owner reference is not validated against the users
// table and may dangle after the owning profile is deleted.
type Listing struct {
	// ID is the unique identifier of the listing.
	ID int `json:"id" db:"id"`

	// Name is the title of the listed tool or product.
	Name string `json:"name" db:"name"`

	// Contact is how interested parties reach the poster.
	Contact string `json:"contact" db:"contact"`

	// Tools describes the tool or category being offered.
	Tools string `json:"tools" db:"tools"`

	// Place is the location of the listing as free-form text.
	Place string `json:"place" db:"place"`

	// Price is the asking price. Nil when the poster did not set one.
	Price *float64 `json:"price,omitempty" db:"price"`

	// Condition describes the state of the item (e.g., "new", "used").
	Condition *string `json:"condition,omitempty" db:"condition"`

	// Image is the generated filename of the listing image in object
	// storage. Nil when no image was uploaded.
	Image *string `json:"image,omitempty" db:"image"`

	// OwnerID references the user who created the listing, if any.
	OwnerID *int `json:"owner_id,omitempty" db:"owner_id"`

	// CreatedAt is the timestamp at which the listing was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the listing.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
