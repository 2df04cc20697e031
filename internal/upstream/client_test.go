package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticketgate/internal/shared/config"
	"ticketgate/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.UpstreamConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 2 * time.Second,
	}, logger.New())
}

func TestMissingTokenFailsBeforeNetworkCall(t *testing.T) {
	called := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := c.BookedSeats(context.Background(), "", "ev1")
	if !errors.Is(err, ErrAuthenticationMissing) {
		t.Fatalf("expected ErrAuthenticationMissing, got %v", err)
	}
	if called {
		t.Error("network call was made despite missing credential")
	}
}

func TestBearerHeaderAttached(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"seats":[],"totalSeats":0}`))
	}))

	if _, err := c.BookedSeats(context.Background(), "tok-123", "ev1"); err != nil {
		t.Fatalf("booked seats failed: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestConflictClassified(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"message":"Seat A5 is no longer available"}`))
	}))

	_, err := c.Book(context.Background(), "tok", BookRequest{EventID: "ev1"})
	if !IsConflict(err) {
		t.Fatalf("expected conflict classification, got %v", err)
	}
}

func TestAlreadyCancelledClassified(t *testing.T) {
	cases := []struct {
		status int
		body   string
	}{
		{http.StatusBadRequest, `{"success":false,"message":"Booking already cancelled"}`},
		{http.StatusNotFound, `{"success":false,"message":"Order not found"}`},
		{http.StatusBadRequest, `{"success":false,"message":"BOOKING ALREADY CANCELED"}`},
	}
	for _, tc := range cases {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		}))

		err := c.CancelSeat(context.Background(), "tok", CancelRequest{OrderID: "o1"})
		if !IsAlreadyCancelled(err) {
			t.Errorf("status %d body %s: expected already-cancelled classification, got %v", tc.status, tc.body, err)
		}
	}
}

func TestValidationClassified(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"seats array is required"}`))
	}))

	err := c.CancelSeat(context.Background(), "tok", CancelRequest{OrderID: "o1"})
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation classification, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Message != "seats array is required" {
		t.Errorf("server message lost: %q", apiErr.Message)
	}
}

func TestServerErrorClassified(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`boom`))
	}))

	_, err := c.MyOrders(context.Background(), "tok")
	if !IsKind(err, KindNetworkOrServer) {
		t.Fatalf("expected network-or-server classification, got %v", err)
	}
}

func TestBookReturnsOrderID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"booked","data":{"_id":"order-42"}}`))
	}))

	result, err := c.Book(context.Background(), "tok", BookRequest{EventID: "ev1", BuyerID: "u1"})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if result.OrderID() != "order-42" {
		t.Fatalf("expected order id order-42, got %q", result.OrderID())
	}
}
