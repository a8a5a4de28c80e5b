package model

import "github.com/google/uuid"

// Listing is an item posted for sale. IDs are assigned in memory at creation or
// load time and are not part of the listings file.
type Listing struct {
	ID          uuid.UUID
	OwnerName   string
	OwnerEmail  string
	ItemName    string
	Price       float64
	Description string
	ForSale     bool
}
