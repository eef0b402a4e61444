// Package client talks to the ShopDash REST API.
//
// # Overview
//
// The package provides:
//  1. AuthGateway, the identity operations (login, register, logout, current
//     user, profile), and Gateway, its HTTP implementation. Every call that
//     affects the session reports its progress to a session.Store.
//  2. Interceptor, an http.RoundTripper that attaches the bearer token and
//     reacts to 401 responses by invalidating the session and publishing a
//     single redirect to the login path.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Gateway methods return *Error with a Kind. The sentinels ErrUnauthorized,
// ErrForbidden, ErrValidation and ErrUnavailable match with errors.Is.
//
// # Contexts
//
// A cancelled context does not abort the request in flight. The gateway
// waits for the response and then settles the operation without changing
// the session, so Loading is always released.
package client
