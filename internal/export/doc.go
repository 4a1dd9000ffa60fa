// Package export reads review platform exports.
//
// An export is a CSV file with a header row followed by one row per review.
// Columns are addressed by position, following the export schema of the review
// platform, or by header text when a Layout names them. The package produces
// the product identifier shared by the whole export and the reviews in file
// order; it never reorders, filters or deduplicates rows.
package export
