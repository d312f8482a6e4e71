// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

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
	"net/url"
	"strings"
	"time"

	"github.com/danielhkuo/travelsphere/middleware"
	"github.com/danielhkuo/travelsphere/models"
	"github.com/danielhkuo/travelsphere/voting"
)

const defaultTimeout = 8 * time.Second

// DefaultPollInterval matches how often the web app refreshes a trip.
const DefaultPollInterval = 2 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	TiedIDs    []string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("travelsphere: status %d", e.StatusCode)
	}
	return fmt.Sprintf("travelsphere: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to a TravelSphere server the way a trip member's device does.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New builds a client for baseURL. A nil httpClient gets a default with a
// short timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
		logger:  slog.Default(),
	}
}

// WithLogger replaces the logger used by Watch.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// GetTrip fetches the polling snapshot for a lobby code.
func (c *Client) GetTrip(ctx context.Context, code string) (models.TripSnapshot, error) {
	var snap models.TripSnapshot
	err := c.do(ctx, http.MethodGet, "", nil, &snap, "trips", code)
	return snap, err
}

// SubmitBallot casts token's ranking for the trip's current round.
func (c *Client) SubmitBallot(ctx context.Context, code, token string, ranking []string) (models.SubmitBallotResponse, error) {
	var resp models.SubmitBallotResponse
	err := c.do(ctx, http.MethodPost, token, models.SubmitBallotRequest{Ranking: ranking}, &resp, "trips", code, "ballots")
	return resp, err
}

// Watch polls a trip every interval and calls fn once for every stage the
// viewer enters, in order. It returns nil once the trip is finished and its
// last result has been shown, or ctx.Err() when ctx ends first. Transient
// poll failures are logged and retried on the next tick; a 404 ends the watch.
func (c *Client) Watch(ctx context.Context, code string, interval time.Duration, fn func(stage string, snap models.TripSnapshot)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	viewer := voting.NewViewer()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap, err := c.GetTrip(ctx, code)
		switch {
		case err == nil:
			entered, err := viewer.Observe(snap)
			if err != nil {
				c.logger.Warn("ignoring trip snapshot", "code", code, "error", err)
				break
			}
			for _, stage := range entered {
				fn(stage, snap)
			}
			if viewer.Finished() && viewer.Stage() == models.StageResult {
				return nil
			}

		case ctx.Err() != nil:
			return ctx.Err()

		default:
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				return err
			}
			c.logger.Warn("trip poll failed", "code", code, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, token string, body, out any, path ...string) error {
	endpoint, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.ParticipantTokenHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload models.TieErrorResponse
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = payload.Message
		apiErr.TiedIDs = payload.TiedIDs
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
