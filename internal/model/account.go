package model

// Account is a registered marketplace user. Email is the primary key; Online is
// session state and is never persisted.
type Account struct {
	Name     string
	Email    string
	Password string
	Balance  float64
	Online   bool
}
