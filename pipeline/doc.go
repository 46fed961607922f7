// Package pipeline runs the catalog phases end to end.
//
// A full run scrapes the portal while the intervention spreadsheet and the
// manual overrides are parsed, then matches the spreadsheet against the
// freshly scraped catalog, enriches matched products, and finally embeds
// the catalog for search.
//
// Each phase records a core.RunSummary and updates the run metrics.
// Completeness gate failures do not stop later phases; they are joined and
// returned once every requested phase has finished. Cancellation and
// panics stop the run, but the Summary gathered so far is still returned.
package pipeline
