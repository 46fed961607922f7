package badger

// Key prefixes for different data types
const (
	productPrefix    = "prod:"
	runSummaryPrefix = "run:"
)

// makeProductKey generates the primary key for a product by canonical URL.
func makeProductKey(url string) []byte {
	return []byte(productPrefix + url)
}

// makeRunSummaryKey generates the key holding the latest summary of a phase.
func makeRunSummaryKey(phase string) []byte {
	return []byte(runSummaryPrefix + phase)
}
