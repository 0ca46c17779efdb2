// Package client is the embeddable reservation client: it logs in, keeps a
// grid reconciled against the server's snapshot feed, and submits the
// user's selection. Any UI layer (web, terminal, test harness) drives it
// through the grid it exposes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"timegrid/grid"
	"timegrid/models"
)

type Client struct {
	baseURL  string
	httpc    *http.Client
	token    string
	identity string
	grid     *grid.Grid
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
		grid:    grid.New(),
	}
}

// Grid exposes the reconciliation engine for the embedding UI.
func (c *Client) Grid() *grid.Grid {
	return c.grid
}

// Identity returns the username established by Login.
func (c *Client) Identity() string {
	return c.identity
}

type loginData struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userid"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	AllowedHours int    `json:"allowed_hours"`
}

// Login authenticates and stores the access token and local identity used
// to tell reserved_by_self from reserved_by_other.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: %s", readError(resp.Body))
	}

	var envelope struct {
		Data loginData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if envelope.Data.Token == "" {
		return fmt.Errorf("login response missing token")
	}

	c.token = envelope.Data.Token
	c.identity = envelope.Data.Username
	if c.identity == "" {
		c.identity = username
	}
	return nil
}

// Submit posts the grid's current intent. The selection is cleared only on
// acknowledgment; on any failure it is left untouched so the user can
// retry.
func (c *Client) Submit(ctx context.Context) error {
	refs := c.grid.Intent()
	if len(refs) == 0 {
		return fmt.Errorf("nothing selected")
	}

	body, _ := json.Marshal(models.ReservationIntent{Reservations: refs})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/reservations", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("reservation rejected: %s", readError(resp.Body))
	}

	c.grid.ClearSelection()
	return nil
}

// Reservations fetches the current snapshot over plain HTTP and applies it.
// Useful before the feed connects, or as a fallback when it is down.
func (c *Client) Reservations(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/reservations", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch reservations: %s", readError(resp.Body))
	}

	var entries []grid.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("decode reservations: %w", err)
	}
	c.grid.ApplySnapshot(entries, c.identity)
	return nil
}

func readError(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4<<10))

	var withReason struct {
		Reason string `json:"reason"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &withReason); err == nil {
		if withReason.Reason != "" {
			return withReason.Reason
		}
		if withReason.Error != "" {
			return withReason.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
