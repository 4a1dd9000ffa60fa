// Package pipeline runs a review export through extraction and order
// resolution and builds the per-variant report.
//
// A run is a sequence of Steps sharing one model.Run. ExtractStep reads the
// export and moves the run from idle to resolving. ResolveStep looks up the
// order of every review that has an order number, feeds the line items to a
// variant.Aggregator and moves the run to done.
//
// Error policy: a failing step stops the run, which is how malformed exports
// are handled. A failed order lookup is recorded in the run summary and the
// next review is processed. Cancelling the context stops new lookups; the run
// still reaches done with the reviews handled so far.
//
// Lookups run one at a time by default. With a concurrency above one they are
// fanned out by a BatchResolver and folded into the report in export order,
// so the report does not depend on the concurrency.
package pipeline
