package store

import (
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/repository"
)

var (
	ErrNameTaken          = apperr.Duplicate("A user with this username already exists")
	ErrEmailTaken         = apperr.Duplicate("A user with this email already exists")
	ErrUsernameExists     = apperr.Duplicate("Username already exists")
	ErrEmailExists        = apperr.Duplicate("Email already exists")
	ErrInvalidBalance     = apperr.Validation("Invalid balance")
	ErrEmptyIdentifier    = apperr.Validation("Email or Username cannot be empty!")
	ErrEmptyPassword      = apperr.Validation("Password cannot be empty")
	ErrInvalidCredentials = apperr.NotFound("Invalid credentials")
	ErrAlreadyOnline      = apperr.AlreadyOnline("This account is already logged in")
	ErrWrongPassword      = apperr.WrongPassword("Invalid Password! Please try again")
	ErrAccountNotFound    = apperr.NotFound("Account not found")

	ErrInvalidPrice      = apperr.Validation("Invalid price")
	ErrSellerNotFound    = apperr.NotFound("Seller not found")
	ErrItemNotFound      = apperr.NotFound("Item not found")
	ErrUnknownParty      = apperr.NotFound("Seller doesn't exist")
	ErrNotForSale        = apperr.State("Item is not sold now")
	ErrInsufficientFunds = apperr.State("You do not have enough money to buy this")

	ErrAmountNotPositive   = apperr.Validation("Amount must be positive")
	ErrWithdrawNotPositive = apperr.Validation("Withdrawal amount must be positive")
	ErrInsufficientBalance = apperr.State("Insufficient balance")
)

type listing struct {
	id          uuid.UUID
	owner       *model.Account
	itemName    string
	price       float64
	description string
	forSale     bool
}

func (l *listing) snapshot() model.Listing {
	return model.Listing{
		ID:          l.id,
		OwnerName:   l.owner.Name,
		OwnerEmail:  l.owner.Email,
		ItemName:    l.itemName,
		Price:       l.price,
		Description: l.description,
		ForSale:     l.forSale,
	}
}

func (l *listing) record() repository.ListingRecord {
	return repository.ListingRecord{
		OwnerName:   l.owner.Name,
		ItemName:    l.itemName,
		Price:       l.price,
		Description: l.description,
		ForSale:     l.forSale,
	}
}

type Stats struct {
	Accounts int `json:"accounts"`
	Listings int `json:"listings"`
	Online   int `json:"online"`
}

// AccountStore owns every account and listing of the process. A single mutex
// guards both collections, so each exported method is atomic with respect to
// every other one. Methods return copies; nothing outside the store holds a
// pointer into it.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account // by email
	listings []*listing

	// persistMu orders whole-file rewrites and single-line appends. Creations
	// hold it from insert to append so no save can observe the new record
	// before its line is written. Lock order is persistMu, then mu.
	persistMu   sync.Mutex
	accountFile *repository.AccountFile
	listingFile *repository.ListingFile
	logger      *slog.Logger
}

func NewAccountStore(accountFile *repository.AccountFile, listingFile *repository.ListingFile, logger *slog.Logger) *AccountStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountStore{
		accounts:    make(map[string]*model.Account),
		accountFile: accountFile,
		listingFile: listingFile,
		logger:      logger,
	}
}

// CreateAccount registers a new account and appends it to the accounts file.
func (s *AccountStore) CreateAccount(name, email, password string, balance float64) (model.Account, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	acct, err := s.createAccount(name, email, password, balance)
	if err != nil {
		return model.Account{}, err
	}
	if err := s.accountFile.Append(acct); err != nil {
		s.logger.Error("append account failed", "email", acct.Email, "err", err)
	}
	return acct, nil
}

func (s *AccountStore) createAccount(name, email, password string, balance float64) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findByNameLocked(name) != nil {
		return model.Account{}, ErrNameTaken
	}
	if _, ok := s.accounts[email]; ok {
		return model.Account{}, ErrEmailTaken
	}
	if err := ValidateName(name); err != nil {
		return model.Account{}, err
	}
	if err := ValidateEmail(email); err != nil {
		return model.Account{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return model.Account{}, err
	}
	if math.IsNaN(balance) || math.IsInf(balance, 0) {
		return model.Account{}, ErrInvalidBalance
	}
	acct := &model.Account{Name: name, Email: email, Password: password, Balance: balance}
	s.accounts[email] = acct
	return *acct, nil
}

// Login resolves identifier as an email when it contains "@" and as a
// username otherwise, then marks the account online.
func (s *AccountStore) Login(identifier, password string) (model.Account, error) {
	if identifier == "" {
		return model.Account{}, ErrEmptyIdentifier
	}
	if strings.TrimSpace(password) == "" {
		return model.Account{}, ErrEmptyPassword
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var acct *model.Account
	if strings.Contains(identifier, "@") {
		acct = s.accounts[identifier]
	} else {
		acct = s.findByNameLocked(identifier)
	}
	if acct == nil {
		return model.Account{}, ErrInvalidCredentials
	}
	if acct.Online {
		return model.Account{}, ErrAlreadyOnline
	}
	if acct.Password != password {
		return model.Account{}, ErrWrongPassword
	}
	acct.Online = true
	return *acct, nil
}

func (s *AccountStore) Logout(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[email]; ok {
		acct.Online = false
	}
}

func (s *AccountStore) FindByEmail(email string) (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		return model.Account{}, false
	}
	return *acct, true
}

func (s *AccountStore) FindByName(name string) (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.findByNameLocked(name)
	if acct == nil {
		return model.Account{}, false
	}
	return *acct, true
}

func (s *AccountStore) findByNameLocked(name string) *model.Account {
	for _, acct := range s.accounts {
		if acct.Name == name {
			return acct
		}
	}
	return nil
}

func (s *AccountStore) ChangeName(email, name string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		return model.Account{}, ErrAccountNotFound
	}
	if s.findByNameLocked(name) != nil {
		return model.Account{}, ErrUsernameExists
	}
	if err := ValidateName(name); err != nil {
		return model.Account{}, err
	}
	acct.Name = name
	return *acct, nil
}

func (s *AccountStore) ChangePassword(email, password string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		return model.Account{}, ErrAccountNotFound
	}
	if err := ValidatePassword(password); err != nil {
		return model.Account{}, err
	}
	acct.Password = password
	return *acct, nil
}

// ChangeEmail re-keys the account under newEmail. Listings follow the account
// since they reference it directly.
func (s *AccountStore) ChangeEmail(email, newEmail string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		return model.Account{}, ErrAccountNotFound
	}
	if _, taken := s.accounts[newEmail]; taken {
		return model.Account{}, ErrEmailExists
	}
	if err := ValidateEmail(newEmail); err != nil {
		return model.Account{}, err
	}
	delete(s.accounts, email)
	acct.Email = newEmail
	s.accounts[newEmail] = acct
	return *acct, nil
}

// DeleteAccount removes the account together with all of its listings.
func (s *AccountStore) DeleteAccount(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		return ErrAccountNotFound
	}
	delete(s.accounts, email)
	kept := s.listings[:0]
	for _, l := range s.listings {
		if l.owner != acct {
			kept = append(kept, l)
		}
	}
	clear(s.listings[len(kept):])
	s.listings = kept
	return nil
}

func (s *AccountStore) AddBalance(email string, amount float64) (model.Account, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return model.Account{}, ErrAmountNotPositive
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		return model.Account{}, ErrAccountNotFound
	}
	acct.Balance += amount
	return *acct, nil
}

func (s *AccountStore) WithdrawBalance(email string, amount float64) (model.Account, error) {
	if !(amount > 0) {
		return model.Account{}, ErrWithdrawNotPositive
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		return model.Account{}, ErrAccountNotFound
	}
	if acct.Balance < amount {
		return model.Account{}, ErrInsufficientBalance
	}
	acct.Balance -= amount
	return *acct, nil
}

// CreateListing posts a for-sale listing and appends it to the listings file.
func (s *AccountStore) CreateListing(ownerEmail, itemName string, price float64, description string) (model.Listing, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	l, err := s.createListing(ownerEmail, itemName, price, description)
	if err != nil {
		return model.Listing{}, err
	}
	rec := repository.ListingRecord{
		OwnerName:   l.OwnerName,
		ItemName:    l.ItemName,
		Price:       l.Price,
		Description: l.Description,
		ForSale:     l.ForSale,
	}
	if err := s.listingFile.Append(rec); err != nil {
		s.logger.Error("append listing failed", "item", l.ItemName, "err", err)
	}
	return l, nil
}

func (s *AccountStore) createListing(ownerEmail, itemName string, price float64, description string) (model.Listing, error) {
	if !(price > 0) || math.IsInf(price, 0) {
		return model.Listing{}, ErrInvalidPrice
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.accounts[ownerEmail]
	if !ok {
		return model.Listing{}, ErrAccountNotFound
	}
	l := &listing{
		id:          uuid.New(),
		owner:       owner,
		itemName:    itemName,
		price:       price,
		description: description,
		forSale:     true,
	}
	s.listings = append(s.listings, l)
	return l.snapshot(), nil
}

// DeleteListing drops a listing from memory. The listings file catches up on
// the next Persist.
func (s *AccountStore) DeleteListing(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listings {
		if l.id == id {
			s.removeListingLocked(l)
			return true
		}
	}
	return false
}

// RemoveListing withdraws the owner's first for-sale listing named itemName.
func (s *AccountStore) RemoveListing(ownerEmail, itemName string) (model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.accounts[ownerEmail]
	if !ok {
		return model.Listing{}, ErrAccountNotFound
	}
	for _, l := range s.listings {
		if l.owner == owner && l.forSale && l.itemName == itemName {
			s.removeListingLocked(l)
			return l.snapshot(), nil
		}
	}
	return model.Listing{}, ErrItemNotFound
}

func (s *AccountStore) removeListingLocked(target *listing) {
	for i, l := range s.listings {
		if l == target {
			s.listings = slices.Delete(s.listings, i, i+1)
			return
		}
	}
}

// SearchListings matches names in either direction. The for-sale condition
// binds only to the second clause.
func (s *AccountStore) SearchListings(term string) []model.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := make([]model.Listing, 0)
	for _, l := range s.listings {
		if strings.Contains(l.itemName, term) || strings.Contains(term, l.itemName) && l.forSale {
			found = append(found, l.snapshot())
		}
	}
	return found
}

// Listings returns every listing in posting order.
func (s *AccountStore) Listings() []model.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l.snapshot())
	}
	return out
}

// ListingsByOwner returns the owner's for-sale listings.
func (s *AccountStore) ListingsByOwner(ownerEmail string) []model.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Listing, 0)
	owner, ok := s.accounts[ownerEmail]
	if !ok {
		return out
	}
	for _, l := range s.listings {
		if l.owner == owner && l.forSale {
			out = append(out, l.snapshot())
		}
	}
	return out
}

// Purchase buys the listing with the given ID for the buyer. The seller is the
// listing's owner.
func (s *AccountStore) Purchase(buyerEmail string, listingID uuid.UUID) (model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listings {
		if l.id == listingID {
			return s.purchaseLocked(s.accounts[buyerEmail], l.owner, l)
		}
	}
	return model.Purchase{}, ErrItemNotFound
}

// Buy resolves the seller by name and the listing by name and exact price, then
// runs the purchase. Lookup and transfer happen under one lock acquisition, so
// two buyers racing for the same listing cannot both succeed.
func (s *AccountStore) Buy(buyerEmail, sellerName, itemName string, price float64) (model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seller := s.findByNameLocked(sellerName)
	if seller == nil {
		return model.Purchase{}, ErrSellerNotFound
	}
	var target *listing
	for _, l := range s.listings {
		if l.owner == seller && l.forSale && l.itemName == itemName && l.price == price {
			target = l
			break
		}
	}
	if target == nil {
		return model.Purchase{}, ErrItemNotFound
	}
	return s.purchaseLocked(s.accounts[buyerEmail], seller, target)
}

func (s *AccountStore) purchaseLocked(buyer, seller *model.Account, l *listing) (model.Purchase, error) {
	if !s.knownLocked(buyer) || !s.knownLocked(seller) {
		return model.Purchase{}, ErrUnknownParty
	}
	if !l.forSale {
		return model.Purchase{}, ErrNotForSale
	}
	if l.price > buyer.Balance {
		return model.Purchase{}, ErrInsufficientFunds
	}
	seller.Balance += l.price
	buyer.Balance -= l.price
	l.forSale = false
	s.removeListingLocked(l)
	return model.Purchase{Buyer: *buyer, Seller: *seller, Listing: l.snapshot()}, nil
}

func (s *AccountStore) knownLocked(acct *model.Account) bool {
	return acct != nil && s.accounts[acct.Email] == acct
}

func (s *AccountStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Accounts: len(s.accounts), Listings: len(s.listings)}
	for _, acct := range s.accounts {
		if acct.Online {
			st.Online++
		}
	}
	return st
}

// DataFiles lists the files Persist writes.
func (s *AccountStore) DataFiles() []string {
	return []string{s.accountFile.Path(), s.listingFile.Path()}
}

// snapshotForSave copies the persisted view: accounts ordered by email,
// listings in posting order.
func (s *AccountStore) snapshotForSave() ([]model.Account, []repository.ListingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]model.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		accounts = append(accounts, *acct)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Email < accounts[j].Email })
	listings := make([]repository.ListingRecord, 0, len(s.listings))
	for _, l := range s.listings {
		listings = append(listings, l.record())
	}
	return accounts, listings
}
