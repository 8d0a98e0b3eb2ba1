// Package cli wires the ftpmgr cobra commands: the admin API server, the
// deploy pipeline and the render, discovery and credential helpers used
// from a shell.
package cli
