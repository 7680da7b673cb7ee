// Package services defines shared utilities consumed by the workflow engine,
// the HTTP layer, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp inventory item IDs, operation names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper. The markers form the
//     error taxonomy (validation, not found, classifier, insight service,
//     timeout) that the HTTP layer maps onto status codes and that batch
//     operations use to decide between skipping and failing.
//
// Use these helpers when wiring new workflow logic so operational behaviour
// (error handling, observability) stays uniform across the service.
package services
