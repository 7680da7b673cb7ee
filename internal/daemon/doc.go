// Package daemon coordinates the long-running partscoped process.
//
// It wires configuration, the inventory store, the workflow engine and the
// HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances sharing one database. Startup runs the preflight checks
// and logs failures without refusing to start.
//
// Keep orchestration here: inventory semantics live in the workflow package
// while the daemon focuses on startup, shutdown and the HTTP surface.
package daemon
