// Package http implements the local HTTP API the browser page talks to.
// Handlers stay thin: they decode the request, call the portal and render
// the resulting snapshot with go-chi/render.
//
// # Endpoints
//
//	GET  /api/state     current snapshot
//	POST /api/load      re-run the session gate (page load)
//	POST /api/activate  {"product_key": "..."}
//	POST /api/submit    {"keyword": "...", "email": "..."}
//	GET  /api/health    liveness and the current view
//	POST /api/logs      browser diagnostics
//
// # Error Handling
//
// Validation and remote failures are not HTTP errors. They are reported in
// the snapshot's status text and the response is 200. Only malformed JSON
// (400) and rejected actions (409 for a disabled control or a hidden view)
// are rendered as *errors.APIError bodies:
//
//	{
//	    "status_code": 409,
//	    "error_code": "CONTROL_DISABLED",
//	    "message": "The control is disabled while a request is pending",
//	    "trace_id": "..."
//	}
package http
