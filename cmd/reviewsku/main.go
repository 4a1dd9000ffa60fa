// Package main provides the entry point for the reviewsku CLI.
//
// reviewsku reads a product review export, looks up the order every review
// was left for in the Shopify Admin API and groups the reviews by the SKU of
// the purchased variant.
//
// Usage:
//
//	SHOP_NAME=my-store API_KEY=shpat_... reviewsku group reviews.csv
//
// See --help for all available options.
package main

func main() {
	Execute()
}
