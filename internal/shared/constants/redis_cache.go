package constants

import "time"

// Redis key layout for the gateway's advisory caches.
// Pattern: ticketgate:{module}:{operation}:{identifier}
//
// Nothing authoritative lives in Redis: the booked-seats snapshot is an
// advisory copy of upstream state and the active-role cache is a recovery
// fallback for tokens without a role claim.

const CACHE_PREFIX = "ticketgate"

// Booked-seats snapshot (per event)
const (
	CACHE_KEY_BOOKED_SEATS = CACHE_PREFIX + ":seatmap:booked:event:" // + event-id
)

// Identity
const (
	CACHE_KEY_ACTIVE_ROLE = CACHE_PREFIX + ":auth:role:user:" // + user-id
)

// Event display metadata (ticket enrichment)
const (
	CACHE_KEY_EVENT_INFO = CACHE_PREFIX + ":tickets:event:" // + event-id
)

// Default TTLs; the config package exposes the tunable values.
const (
	TTL_BOOKED_SEATS_DEFAULT = 30 * time.Second
	TTL_ACTIVE_ROLE_DEFAULT  = 6 * time.Hour
	TTL_EVENT_INFO_DEFAULT   = 10 * time.Minute
)

// BuildBookedSeatsKey constructs the snapshot cache key for an event.
func BuildBookedSeatsKey(eventID string) string {
	return CACHE_KEY_BOOKED_SEATS + eventID
}

// BuildActiveRoleKey constructs the active-role cache key for a user.
func BuildActiveRoleKey(userID string) string {
	return CACHE_KEY_ACTIVE_ROLE + userID
}

// BuildEventInfoKey constructs the event-metadata cache key for an event.
func BuildEventInfoKey(eventID string) string {
	return CACHE_KEY_EVENT_INFO + eventID
}
