// Package subtitles fetches subtitle documents for review and bounds their
// size before they are handed to chat agents.
package subtitles
