// Package matching reconciles spreadsheet product names with catalog
// products.
//
// Resolution is two-tiered. A curated override (OverrideStore) is consulted
// first and always wins when its target exists in the catalog. Otherwise
// every catalog product is scored with a token-sort similarity ratio and the
// best candidate is accepted when its score reaches the threshold.
//
// Spreadsheet names and catalog names are normalized differently.
// Spreadsheet names only get Normalize. Catalog names additionally lose
// parenthetical qualifiers, legal-entity suffixes and track suffixes
// ("2e spoor") through NormalizeCatalogName.
package matching
