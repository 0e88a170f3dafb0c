// Package agents provides the chat backend for the quality review. It wraps
// an OpenRouter-compatible chat completion API with retry handling, tolerant
// JSON decoding, and lightweight agent identities with per-conversation
// threads.
package agents
