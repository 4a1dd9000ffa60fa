// Package variant folds resolved order line items into a report that maps
// variant SKUs to review ids.
//
// Only line items of the reviewed product are considered. When an order holds
// several of them, the first one in the order's line item sequence wins.
package variant
