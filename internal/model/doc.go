// Package model defines the core data structures used throughout reviewsku.
//
// This package contains the following main types:
//   - ProductReview: One review row taken from a review platform export
//   - OrderLineItem: A purchased line item returned by the commerce API
//   - VariantReport: The SKU to review id mapping produced by a run
//   - Run: The state of a single pipeline run, including its RunSummary
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The export, shopify, variant, pipeline and report packages all
// exchange these types.
package model
