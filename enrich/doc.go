// Package enrich writes spreadsheet problem mappings onto matched catalog
// products.
//
// Each match becomes a metadata patch holding problem_mappings,
// csv_category, match_score and match_source, applied with a shallow merge
// so metadata written by other producers survives. The spreadsheet category
// also replaces the product category. Re-running with the same inputs
// produces identical metadata.
//
// Spreadsheet products that could not be matched are written to a JSON
// artifact for human review with WriteUnresolved.
package enrich
