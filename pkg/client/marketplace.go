package client

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/agentdeck/agentdeck/core/types"
)

// ListingFilter narrows a marketplace listings query. Zero values are
// omitted from the request.
type ListingFilter struct {
	ItemType string
	Tag      string
}

// ListingInput is the payload for creating a listing.
type ListingInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	ItemType    string         `json:"item_type"`
	ItemID      string         `json:"item_id"`
	Tags        []string       `json:"tags"`
	PreviewData map[string]any `json:"preview_data,omitempty"`
}

// ListingPatch is a partial update; nil fields are left untouched server side.
type ListingPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// ListListings returns marketplace listings, optionally filtered.
func (c *Client) ListListings(filter ListingFilter) ([]types.MarketplaceListing, error) {
	query := url.Values{}
	if filter.ItemType != "" {
		query.Set("item_type", filter.ItemType)
	}
	if filter.Tag != "" {
		query.Set("tag", filter.Tag)
	}

	var out []types.MarketplaceListing
	if err := c.doJSON(http.MethodGet, "/marketplace/listings", nil, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateListing publishes a new listing and returns the stored record.
func (c *Client) CreateListing(in ListingInput) (*types.MarketplaceListing, error) {
	var out types.MarketplaceListing
	if err := c.doJSON(http.MethodPost, "/marketplace/listings", in, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateListing applies patch and decodes the response onto out.
func (c *Client) UpdateListing(id string, patch ListingPatch, out *types.MarketplaceListing) error {
	return c.doJSON(http.MethodPut, fmt.Sprintf("/marketplace/listings/%s", id), patch, nil, out)
}

// DeleteListing removes a listing.
func (c *Client) DeleteListing(id string) error {
	return c.doJSON(http.MethodDelete, fmt.Sprintf("/marketplace/listings/%s", id), nil, nil, nil)
}

// Purchase buys a listing. The commission split is the backend's business;
// the resulting transaction is returned as-is.
func (c *Client) Purchase(listingID string) (*types.Transaction, error) {
	var out types.Transaction
	if err := c.doJSON(http.MethodPost, fmt.Sprintf("/marketplace/purchase/%s", listingID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions returns every transaction involving the current user.
func (c *Client) Transactions() ([]types.Transaction, error) {
	var out []types.Transaction
	if err := c.doJSON(http.MethodGet, "/marketplace/transactions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Purchases returns transactions where the current user is the buyer.
func (c *Client) Purchases() ([]types.Transaction, error) {
	var out []types.Transaction
	if err := c.doJSON(http.MethodGet, "/marketplace/purchases", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sales returns transactions where the current user is the seller.
func (c *Client) Sales() ([]types.Transaction, error) {
	var out []types.Transaction
	if err := c.doJSON(http.MethodGet, "/marketplace/sales", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
