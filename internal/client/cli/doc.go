// Package cli provides the interactive ShopDash command-line client.
//
// It wires configuration, local session storage, the REST client and the
// route guard into a REPL. Pages are addressed by location ("/orders/42")
// and resolved with a gorilla/mux router; protected pages are only shown
// once the guard grants access, otherwise the user lands on the login
// boundary and is sent back after signing in.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
