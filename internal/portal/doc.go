// Package portal is the view model behind the local UI. It owns the visible
// view, the activation and submission panels, and the transitions between
// their phases:
//
//	idle -> pending -> success | error -> idle
//
// A panel's control is disabled while its request is pending, which admits at
// most one in-flight request per panel. The activation control stays disabled
// after a successful activation until the gate is re-evaluated one second
// later and the view switches. The submit control is re-enabled whatever the
// outcome, and a success status is cleared three seconds later.
//
// Every transition is published to subscribers as an immutable Snapshot.
package portal
