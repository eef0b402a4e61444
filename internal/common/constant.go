// Package common contains shared constants and sentinel errors used across
// the shopdash client packages.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme prefixes the token inside the Authorization header.
	BearerScheme = "Bearer"

	// RequestIDHeaderName tags every outbound request for log correlation.
	RequestIDHeaderName = "X-Request-ID"

	// DefaultStorageKey is the namespaced key the persisted session lives under.
	DefaultStorageKey = "shopdash.auth"
)
