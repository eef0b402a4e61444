// Package session owns the client's single authentication session.
//
// The session changes only through Transitions handed to Store.Dispatch.
// Each transition is reduced by the pure function Reduce, then committed and
// announced to subscribers in commit order. Identity operations are sequenced:
// the caller takes an Op from Store.NextOp, dispatches the matching *Started
// transition and later exactly one terminal transition carrying the same Op.
// A terminal transition whose Op is not the most recently started one, or that
// arrives after the operation already settled, leaves the session unchanged.
//
// Op zero marks an unsequenced transition which always applies. The request
// interceptor uses it (SessionInvalidated) because a 401 from an unrelated
// request is not tied to an identity operation.
package session
