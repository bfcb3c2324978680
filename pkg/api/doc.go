// Package api wires the millworkd daemon: it loads a recipe catalog, builds a
// world of machines, restores their snapshots and serves the pkg/server HTTP
// API while the world ticks.
//
// # Configuration
//
//	MILLWORK_CATALOG    recipe catalog path or URL
//	MILLWORK_MACHINES   machine count ("3") or IDs ("crusher-1,crusher-2")
//	MILLWORK_TICK       world step interval (default 50ms)
//	MILLWORK_SUPPLY     grid charge generated per step
//	MILLWORK_STATE_DIR  snapshot store: directory or cm://namespace
//	MILLWORK_PROGRESS   restored progress policy: reset or keep
//	PORT                HTTP port (default 8080)
//	LOG_LEVEL           debug, info, warn, error
//
// Readiness and shutdown are reported to systemd when NOTIFY_SOCKET is set.
package api
