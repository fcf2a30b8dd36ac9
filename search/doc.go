// Package search serves semantic queries over indexed email collections.
//
// A query is embedded once, normalized, and matched against the stored
// vectors. Because every email is indexed as subject, body, and combined
// records, the searcher oversamples the vector query and collapses the
// candidates to one hit per email before ranking. Results that contain
// every significant query word verbatim get a fixed score boost.
//
// The package also provides StatsReporter, an on-demand health view of a
// collection's size and embedding configuration.
package search
