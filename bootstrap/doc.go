// Package bootstrap runs a pipegraph process: it applies and validates the
// configuration, initializes logging and telemetry, starts the registered
// components in order and stops them in reverse on shutdown.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.RegisterComponent(hub)
//	app.RegisterComponent(srv)
//	err = app.Run(ctx)
package bootstrap
