// Package search finds catalog products relevant to a free-text query.
//
// The query is embedded and the nearest products are fetched from the
// catalog. Each candidate is then ranked by a weighted blend of vector
// similarity and query term coverage over its name, description and
// problem mappings. Candidates below the minimum score are dropped.
//
// Search degrades gracefully: any failure is logged and reported as an
// empty result, so a consumer such as a conversational agent can continue
// without products. Present formats a result for such a consumer.
package search
