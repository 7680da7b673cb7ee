// Package api defines the wire format of the partscoped HTTP API and a typed
// client for it.
//
// # Key Types
//
// Item: transport representation of an inventory record. Field names are
// snake_case, created_at is Unix seconds as a float, and score and label are
// null until the item is classified.
//
// Insight and InsightsResponse: recommendations plus the ids that could not
// be resolved or generated.
//
// Client: used by the CLI. Non-2xx responses are returned as *Error carrying
// the status code and the server's message.
//
// # Converters
//
// FromItem and FromInsight map internal models to DTOs. ToInsight maps an
// insight posted by a client back for ApplyInsight.
package api
