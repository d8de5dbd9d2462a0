package state

import (
	"fmt"

	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/pkg/client"
)

// MarketStore mirrors marketplace listings and the current user's
// transactions.
type MarketStore struct {
	collection[types.MarketplaceListing]
	api    *client.Client
	authed func() bool

	transactions collection[types.Transaction]
}

func newMarketStore(api *client.Client, authed func() bool) *MarketStore {
	s := &MarketStore{api: api, authed: authed}
	s.key = func(l types.MarketplaceListing) string { return l.ID }
	s.transactions.key = func(t types.Transaction) string { return t.ID }
	return s
}

// Fetch replaces the listing mirror, optionally filtered. Listings are public,
// so no signed-in user is required.
func (s *MarketStore) Fetch(filter client.ListingFilter) error {
	s.begin()
	listings, err := s.api.ListListings(filter)
	if err != nil {
		s.finish(err)
		return err
	}
	s.replace(listings)
	s.finish(nil)
	return nil
}

// CreateListing publishes a listing and appends the server record.
func (s *MarketStore) CreateListing(in client.ListingInput) (*types.MarketplaceListing, error) {
	if !s.authed() {
		err := fmt.Errorf("create listing: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	s.begin()
	listing, err := s.api.CreateListing(in)
	if err != nil {
		s.finish(err)
		return nil, err
	}
	s.add(*listing)
	s.finish(nil)
	return listing, nil
}

// UpdateListing patches a listing, merging response fields onto the existing
// record.
func (s *MarketStore) UpdateListing(id string, patch client.ListingPatch) (*types.MarketplaceListing, error) {
	if !s.authed() {
		err := fmt.Errorf("update listing: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	merged, ok := s.get(id)
	if !ok {
		merged = types.MarketplaceListing{ID: id}
	}
	s.begin()
	if err := s.api.UpdateListing(id, patch, &merged); err != nil {
		s.finish(err)
		return nil, err
	}
	s.put(merged)
	s.finish(nil)
	return &merged, nil
}

// DeleteListing removes a listing from the backend and the mirror.
func (s *MarketStore) DeleteListing(id string) error {
	if !s.authed() {
		err := fmt.Errorf("delete listing: %w", ErrNotAuthenticated)
		s.fail(err)
		return err
	}
	s.begin()
	if err := s.api.DeleteListing(id); err != nil {
		s.finish(err)
		return err
	}
	s.remove(id)
	s.finish(nil)
	return nil
}

// Purchase buys a listing. The listing stays in the mirror; the resulting
// transaction is recorded and returned.
func (s *MarketStore) Purchase(listingID string) (*types.Transaction, error) {
	if !s.authed() {
		err := fmt.Errorf("purchase: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	s.begin()
	tx, err := s.api.Purchase(listingID)
	if err != nil {
		s.finish(err)
		return nil, err
	}
	s.transactions.add(*tx)
	s.finish(nil)
	return tx, nil
}

// Get returns the mirrored listing with the given id.
func (s *MarketStore) Get(id string) (types.MarketplaceListing, bool) {
	return s.get(id)
}

// FetchTransactions replaces the transaction mirror.
func (s *MarketStore) FetchTransactions() error {
	if !s.authed() {
		return nil
	}
	s.transactions.begin()
	txs, err := s.api.Transactions()
	if err != nil {
		s.transactions.finish(err)
		return err
	}
	s.transactions.replace(txs)
	s.transactions.finish(nil)
	return nil
}

// Transactions returns a copy of the mirrored transactions.
func (s *MarketStore) Transactions() []types.Transaction {
	return s.transactions.Items()
}
