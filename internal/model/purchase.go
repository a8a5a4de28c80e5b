package model

// Purchase is the outcome of a completed buy: both parties after the balance
// transfer and the listing that was removed.
type Purchase struct {
	Buyer   Account
	Seller  Account
	Listing Listing
}
