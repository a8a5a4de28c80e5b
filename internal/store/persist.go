package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"
)

type LoadResult struct {
	Accounts        int
	Listings        int
	DroppedListings int
}

// Reload replaces the in-memory state with the contents of the accounts and
// listings files. Missing files load as an empty store. Listings are attached
// to their owner by display name; a listing whose owner cannot be found is
// dropped.
func (s *AccountStore) Reload() (LoadResult, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	accounts, err := s.accountFile.Load()
	if err != nil {
		return LoadResult{}, apperr.IO("load accounts", err)
	}
	records, err := s.listingFile.Load()
	if err != nil {
		return LoadResult{}, apperr.IO("load listings", err)
	}

	byEmail := make(map[string]*model.Account, len(accounts))
	byName := make(map[string]*model.Account, len(accounts))
	for i := range accounts {
		acct := accounts[i]
		acct.Online = false
		if _, dup := byEmail[acct.Email]; dup {
			s.logger.Warn("duplicate account in file, keeping last", "email", acct.Email)
		}
		byEmail[acct.Email] = &acct
	}
	// First account in file order wins a name, matching a linear scan.
	for i := len(accounts) - 1; i >= 0; i-- {
		if acct := byEmail[accounts[i].Email]; acct != nil {
			byName[acct.Name] = acct
		}
	}

	res := LoadResult{Accounts: len(byEmail)}
	listings := make([]*listing, 0, len(records))
	for _, rec := range records {
		owner, ok := byName[rec.OwnerName]
		if !ok {
			res.DroppedListings++
			s.logger.Warn("dropping listing with unknown owner", "owner", rec.OwnerName, "item", rec.ItemName)
			continue
		}
		listings = append(listings, &listing{
			id:          uuid.New(),
			owner:       owner,
			itemName:    rec.ItemName,
			price:       rec.Price,
			description: rec.Description,
			forSale:     rec.ForSale,
		})
	}
	res.Listings = len(listings)

	s.mu.Lock()
	s.accounts = byEmail
	s.listings = listings
	s.mu.Unlock()

	s.logger.Info("account store loaded",
		"accounts", res.Accounts, "listings", res.Listings, "dropped_listings", res.DroppedListings)
	return res, nil
}

// Persist overwrites the accounts and listings files with the current state.
func (s *AccountStore) Persist() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	accounts, listings := s.snapshotForSave()
	if err := s.accountFile.Save(accounts); err != nil {
		return apperr.IO("save accounts", err)
	}
	if err := s.listingFile.Save(listings); err != nil {
		return apperr.IO("save listings", err)
	}
	return nil
}

// AutoSave persists the store every interval until ctx is done. After each
// successful save the hooks run in order; a failing hook is logged and does
// not stop the loop.
func (s *AccountStore) AutoSave(ctx context.Context, interval time.Duration, hooks ...func(context.Context) error) error {
	if interval <= 0 {
		return errors.New("auto-save interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Persist(); err != nil {
				s.logger.Error("auto-save failed", "err", err)
				continue
			}
			for _, hook := range hooks {
				if err := hook(ctx); err != nil {
					s.logger.Warn("auto-save hook failed", "err", err)
				}
			}
			s.logger.Info("auto-save completed")
		}
	}
}
