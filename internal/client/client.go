package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"staybook/internal/app/dto"
)

var (
	ErrBaseURLRequired = errors.New("client: base url is required")
	// ErrRequestFailed covers transport failures and every non-2xx response
	// alike. Callers do not branch on the server's reason.
	ErrRequestFailed = errors.New("client: request failed")
)

// Client talks to the staybook HTTP API. A zero Token makes anonymous
// requests; Me then reports no user.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func New(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type CreateReservationParams struct {
	ListingID  string       `json:"listing_id"`
	StartDate  time.Time    `json:"start_date"`
	EndDate    time.Time    `json:"end_date"`
	TotalPrice dto.MoneyDTO `json:"total_price"`
}

func (c *Client) CreateReservation(ctx context.Context, params CreateReservationParams) error {
	return c.do(ctx, http.MethodPost, "/api/v1/reservations", params, nil)
}

func (c *Client) Listing(ctx context.Context, listingID string) (*dto.ListingDetail, error) {
	var detail dto.ListingDetail
	path := fmt.Sprintf("/api/v1/listings/%s", listingID)
	if err := c.do(ctx, http.MethodGet, path, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) BookedDates(ctx context.Context, listingID string) (*dto.BookedDates, error) {
	var booked dto.BookedDates
	path := fmt.Sprintf("/api/v1/listings/%s/booked-dates", listingID)
	if err := c.do(ctx, http.MethodGet, path, nil, &booked); err != nil {
		return nil, err
	}
	return &booked, nil
}

func (c *Client) Me(ctx context.Context) (*dto.UserProfile, error) {
	var profile dto.UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CurrentUser lets the client stand in as the controller's identity gate:
// any failure, 401 included, reads as an anonymous visitor.
func (c *Client) CurrentUser(ctx context.Context) *Identity {
	profile, err := c.Me(ctx)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Debug("identity resolution failed", "error", err)
		}
		return nil
	}
	if profile == nil || profile.ID == "" {
		return nil
	}
	return &Identity{ID: profile.ID, Email: profile.Email, Name: profile.Name}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s %s returned %d", ErrRequestFailed, method, path, resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
