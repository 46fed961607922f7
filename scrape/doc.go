// Package scrape collects the product catalog from the portal.
//
// A run fetches the listing page, keeps every link that points at a product
// detail page (base/products/<id>), then fetches and extracts each detail
// page on a bounded worker pool. Requests share one rate limiter, so the
// configured delay holds across workers. Each extracted product is written
// with CatalogRepository.UpsertScraped, which only touches scraper-owned
// fields.
//
// Failures are isolated per URL and counted in Stats. Whether the run as a
// whole succeeded is decided afterwards by Stats.Check.
package scrape
