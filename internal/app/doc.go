// Package app wires the PriceScope HTTP service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration (.env, YAML file, PRICESCOPE_* environment)
//  2. Initialize logging and OpenTelemetry
//  3. Open the configured record source
//  4. Build the report service
//  5. Set up middleware, handlers and the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(ctx)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// Server.ShutdownTimeout, closes the record source and flushes telemetry.
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
