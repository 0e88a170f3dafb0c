// Package daemon ties the long-running pieces together: the workflow
// manager, the HTTP surface, and a file lock that keeps a single daemon
// instance per configuration. The IPC layer drives it over a unix socket.
package daemon
