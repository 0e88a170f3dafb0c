// Command overdub is the control CLI for the overdub daemon. It talks to
// the daemon over a JSON-RPC Unix socket and manages translation jobs,
// approvals, and daemon lifecycle.
package main
