// Package license exchanges a product key for a license token with the
// remote activation endpoint.
//
// # Activation Flow
//
//	1. Trim the product key and reject it if empty (no request is sent)
//	2. POST {"product_key", "machine_id"} as JSON to the activation URL
//	3. On any 2xx, read "license_key" from the JSON body
//	4. On a non-2xx, surface the optional "detail" string of the body
//
// # Errors
//
// Every failure is an *errors.ExchangeError. Callers branch with errors.Is
// against ErrValidation, ErrServer and ErrTransport:
//
//	- Validation: the key was empty after trimming
//	- Server: a non-2xx response, or a 2xx without a license token.
//	  Detail holds the server message, or "" when there was none
//	- Transport: no response was received
//
// The client never retries.
package license
