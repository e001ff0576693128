// Package session holds the three durable values of an installation (the
// device identifier, the license token and the last-used email) and the Gate
// that picks the visible view from them.
//
// All values live in one injected storage.Store. Nothing is ever deleted:
// values are created and overwritten only.
package session
