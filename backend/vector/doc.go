// Package vector is the columnar backend. Nodes compile to LazyFrames over
// Apache Arrow arrays; indicators are lowered to whole-column kernels whose
// results match the row-wise indicator package within 1e-9. Sinks compile to
// an Action that materializes the frame and writes csv or parquet.
//
// Window has no columnar form here and fails with UNSUPPORTED_OPERATION.
package vector
