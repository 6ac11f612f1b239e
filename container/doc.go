// Package container implements a small hierarchical binary store: a single
// file holding named groups, each group holding append-only tables of
// timestamped, fixed-shape typed rows.
//
// A file is created with Create, filled through Table.Append, and finalized
// with Close. Once closed it is read-only; Open scans it and gives random
// access to each table's rows.
//
// File layout
//
// A file starts with a 32-byte header:
//
//	magic:   "SIGLOG\x00\x01"
//	id:      16-byte UUID
//	created: int64, unix nanoseconds, little-endian
//
// followed by a sequence of records:
//
//	record :=
//	  type:     uint8   // group, table, or chunk
//	  length:   uint32  // length of payload; little-endian
//	  checksum: uint64  // xxhash64 of type and payload; little-endian
//	  payload:  uint8[length]
//
// A group record names a group. A table record declares a table: its group,
// its name, the dtype and shape of its values, and the compression filter
// applied to its data. Tables are numbered in declaration order.
//
// Rows are not written one at a time. Each table buffers rows into a chunk
// (64KB of raw row data by default, see ChunkSize), and a chunk record is
// written when the buffer fills up, and on Flush and Close:
//
//	chunk :=
//	  table:  uint32
//	  rows:   uint32
//	  rawLen: uint32  // length of the uncompressed data
//	  flags:  uint8   // bit 0 set when data is compressed
//	  data:   uint8[]
//
// The uncompressed data is columnar: every row's time (float64) followed by
// every row's packed value.
//
// Open verifies the group and table records, and indexes chunk records
// without reading their data. A chunk's checksum is verified when the chunk
// is first loaded.
package container
