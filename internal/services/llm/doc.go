// Package llm provides a small OpenRouter-compatible chat client that asks a
// model for JSON-only replies.
//
// The insight generator uses it to turn an inventory item's classification
// into a triage recommendation. NewClient builds a client from Config;
// CompleteJSON sends a system and user prompt and returns the raw JSON text;
// DecodeJSON tolerates code fences and surrounding prose in replies.
//
// Requests retry on HTTP 408/429/5xx, network timeouts, and empty replies with
// exponential backoff. WithRequestsPerMinute paces calls with a token bucket.
// Context cancellation aborts waits and retries immediately.
package llm
