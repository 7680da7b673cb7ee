// Package preflight provides readiness checks for the filesystem paths and
// external services partscoped depends on.
//
// The checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failed check.
//   - GET /api/health runs RunAll on demand, and "partscope status" renders
//     the result.
//
// Checks never fail hard; each returns a Result and the caller decides.
package preflight
