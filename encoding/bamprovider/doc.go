// Package bamprovider reads coordinate-sorted BAM files, either whole or one
// region at a time.
//
// A Provider owns the path, header and index of one BAM file. The index
// (path + ".bai" by default) is built on the first Open if it does not exist
// yet. Iterators created from a Provider stream sam.Records and implement
// aggregate.Source[*sam.Record].
package bamprovider
