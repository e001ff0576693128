// Package app wires configuration, logging, telemetry, the durable store,
// the remote clients, the portal and the HTTP server into one Application
// and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, optional YAML file, TASKGATE_* env)
//	2. Initialize logging and OpenTelemetry
//	3. Open the durable store and build the session
//	4. Create the remote clients and the portal
//	5. Set up the websocket hub, middleware and routes
//
// # Usage
//
//	application, err := app.NewApplication(pages)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns when ctx is cancelled or SIGINT/SIGTERM arrives. The server
// drains active requests within Server.ShutdownTimeout, then the hub, the
// portal (cancelling in-flight remote calls and pending timers), the store
// and the telemetry providers are closed. The app never calls os.Exit.
package app
