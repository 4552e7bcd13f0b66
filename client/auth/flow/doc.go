// Package flow implements the interactive part of the OAuth2 authorization code flow:
// a Broker binds a loopback listener on the registered redirect URI, opens the system
// browser at the authorization URL and resolves with the code delivered by the first
// redirect.
//
// The listener is single use. It is closed as soon as one redirect has been handled,
// when the configured deadline elapses or when the caller's context is cancelled.
package flow
