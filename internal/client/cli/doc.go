// Package cli provides the interactive CargoTrail command-line client.
//
// It wires configuration, the local SQLite store, the OAuth client, and an
// interactive REPL. Typical flow: log in, browse shipments, trigger tracker
// syncs, upload manifest reports. Every command counts as user activity; when
// the user stays idle past the configured threshold, the inactivity monitor
// closes the session in the background.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
