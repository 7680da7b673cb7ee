// Package workflow coordinates inventory intake, classification, editing, and
// insight generation.
//
// Engine is a service object over injected collaborators: the record store,
// the image store, a classifier, and an insight generator. A single mutex
// serializes every mutating operation so list-returning calls observe a
// consistent inventory; reads do not take it. Slow work (classifier calls and
// insight generation) runs outside the lock, and ClassifyAll commits one item
// at a time so a failure midway keeps the results already written.
//
// Errors carry the services taxonomy: validation and not-found errors come
// back to the caller unchanged, per-item classifier failures are logged and
// skipped, and insight failures are reported through InsightReport.Missing.
package workflow
