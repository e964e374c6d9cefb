// Package batch implements the batch ingestion façade (C10): a columnar,
// flat-slice API for inserting many records in one call, avoiding the
// per-row slice-of-slices allocation a naive [][]float32 API would force.
package batch
