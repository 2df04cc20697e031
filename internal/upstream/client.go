package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ticketgate/internal/shared/config"
	"ticketgate/pkg/logger"
)

// Client is the typed surface over the externally-owned ticketing backend.
// Every call requires a resolved bearer token; an empty token fails fast
// with ErrAuthenticationMissing before any network traffic.
type Client interface {
	BookedSeats(ctx context.Context, token, eventID string) (*BookedSeatsResponse, error)
	ReserveSeats(ctx context.Context, token string, req ReserveRequest) (*BookingResult, error)
	Book(ctx context.Context, token string, req BookRequest) (*BookingResult, error)
	MyOrders(ctx context.Context, token string) ([]Order, error)
	CancelSeat(ctx context.Context, token string, req CancelRequest) error
	Event(ctx context.Context, token, eventID string) (*EventInfo, error)
}

type client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient builds a Client from the upstream config.
func NewClient(cfg config.UpstreamConfig, log *logger.Logger) Client {
	return &client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		log: log,
	}
}

func (c *client) BookedSeats(ctx context.Context, token, eventID string) (*BookedSeatsResponse, error) {
	var out BookedSeatsResponse
	path := "/bookings/booked-seats/" + eventID
	if err := c.doJSON(ctx, token, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) ReserveSeats(ctx context.Context, token string, req ReserveRequest) (*BookingResult, error) {
	var out BookingResult
	if err := c.doJSON(ctx, token, http.MethodPost, "/bookings/reserve-seats", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Book(ctx context.Context, token string, req BookRequest) (*BookingResult, error) {
	var out BookingResult
	if err := c.doJSON(ctx, token, http.MethodPost, "/bookings/book", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) MyOrders(ctx context.Context, token string) ([]Order, error) {
	var out MyOrdersResponse
	if err := c.doJSON(ctx, token, http.MethodGet, "/orders/my-orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *client) CancelSeat(ctx context.Context, token string, req CancelRequest) error {
	var out errorEnvelope
	return c.doJSON(ctx, token, http.MethodPost, "/payments/booking/cancel", req, &out)
}

func (c *client) Event(ctx context.Context, token, eventID string) (*EventInfo, error) {
	var out EventResponse
	if err := c.doJSON(ctx, token, http.MethodGet, "/event/events/"+eventID, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// doJSON performs one authenticated round trip and decodes the response.
// All error classification for the taxonomy lives here.
func (c *client) doJSON(ctx context.Context, token, method, path string, body, out interface{}) error {
	if token == "" {
		return ErrAuthenticationMissing
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.LogUpstreamError(ctx, method, path, err)
		return &APIError{
			Kind:    KindNetworkOrServer,
			Message: fmt.Sprintf("request failed: %v", err),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.LogUpstreamError(ctx, method, path, err)
		return &APIError{
			Kind:       KindNetworkOrServer,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read response: %v", err),
		}
	}

	c.log.LogUpstreamCall(ctx, method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorEnvelope
		_ = json.Unmarshal(raw, &envelope)
		return &APIError{
			Kind:       classify(resp.StatusCode, envelope.text()),
			StatusCode: resp.StatusCode,
			Message:    envelope.text(),
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &APIError{
				Kind:       KindNetworkOrServer,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("non-JSON response: %v", err),
			}
		}
	}

	return nil
}
