// Package shopify resolves order numbers to purchased line items through the
// Shopify Admin GraphQL API.
//
// The review platform only knows the number of the order a review was left
// for. The store names its orders "<number><suffix>", so the client searches
// orders with the query string "name:<number><suffix>" and reads the SKU and
// product of every line item of the first match.
//
// Boundaries: at most one order is requested and at most MaxLineItems line
// items of it. Larger orders are truncated by the API's pagination; the
// client does not page further.
//
// Failures of a single lookup are returned as *ResolutionError. An order that
// does not exist, or that has no line items, is not an error: Resolve returns
// an empty slice.
package shopify
