package client

import (
	"fmt"
	"net/http"

	"github.com/agentdeck/agentdeck/core/types"
)

// PaymentIntent carries the provider client secret needed to collect a card
// payment in the browser.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CheckoutSession is a hosted checkout redirect target.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url,omitempty"`
}

// SubscriptionStatus returns the current user's subscription state.
func (c *Client) SubscriptionStatus() (*types.SubscriptionStatus, error) {
	var out types.SubscriptionStatus
	if err := c.doJSON(http.MethodGet, "/subscriptions/status", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubscription starts a subscription for the given provider price id.
func (c *Client) CreateSubscription(priceID string) (*CheckoutSession, error) {
	body := struct {
		PriceID string `json:"price_id"`
	}{PriceID: priceID}

	var out CheckoutSession
	if err := c.doJSON(http.MethodPost, "/subscriptions/create", body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelSubscription cancels a subscription at period end.
func (c *Client) CancelSubscription(subscriptionID string) error {
	return c.doJSON(http.MethodPost, fmt.Sprintf("/subscriptions/%s/cancel", subscriptionID), nil, nil, nil)
}

// CreatePaymentIntent prepares a card payment for a listing purchase.
func (c *Client) CreatePaymentIntent(listingID string) (*PaymentIntent, error) {
	body := struct {
		ListingID string `json:"listing_id"`
	}{ListingID: listingID}

	var out PaymentIntent
	if err := c.doJSON(http.MethodPost, "/payments/create-intent", body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCheckoutSession prepares a hosted checkout redirect.
func (c *Client) CreateCheckoutSession(priceID, successURL, cancelURL string) (*CheckoutSession, error) {
	body := struct {
		PriceID    string `json:"price_id"`
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	}{PriceID: priceID, SuccessURL: successURL, CancelURL: cancelURL}

	var out CheckoutSession
	if err := c.doJSON(http.MethodPost, "/payments/create-checkout-session", body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
