// Package analytics holds the pure aggregations behind the overview,
// expiry radar and stockout views. Nothing here keeps state between calls,
// and anything that depends on the current date takes it as an argument.
package analytics
