// Package iotrace decorates the vfs capability interfaces with I/O tracing.
// Each wrapper forwards every call unchanged to its target, measures the
// wall-clock latency around the forwarded call, and submits one trace record
// per logical operation (one per sub-request for batched operations) to a
// shared Sink. Tracing never alters the outcome of an operation: the
// original result and error are always returned to the caller untouched.
package iotrace

// Kind identifies the payload shape of a trace record. The shape is fixed
// per operation; it never depends on the operation's outcome.
type Kind uint8

const (
	// KindGeneral carries no payload.
	KindGeneral Kind = iota
	// KindFileName carries a path.
	KindFileName
	// KindFileNameAndSize carries a path and a byte count.
	KindFileNameAndSize
	// KindLen carries a byte count.
	KindLen
	// KindLenAndOffset carries a byte count and a position.
	KindLenAndOffset
)

// String returns a stable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindGeneral:
		return "general"
	case KindFileName:
		return "file_name"
	case KindFileNameAndSize:
		return "file_name_and_size"
	case KindLen:
		return "len"
	case KindLenAndOffset:
		return "len_and_offset"
	default:
		return "unknown"
	}
}

// Record describes one completed file-system operation. Timestamp is the
// completion time in microseconds since the Unix epoch; LatencyUS is the
// duration of the forwarded call in the same unit. For batched operations
// every sub-record shares the batch's Timestamp and LatencyUS but carries
// its own Len, Offset and Status.
//
// Op strings are the wrapped method names and are stable identifiers:
// traces written by different versions must remain comparable.
type Record struct {
	Timestamp uint64 `json:"ts"`
	Kind      Kind   `json:"kind"`
	Op        string `json:"op"`
	LatencyUS uint64 `json:"latency_us"`
	Status    string `json:"status"`
	FileName  string `json:"file,omitempty"`
	FileSize  uint64 `json:"file_size,omitempty"`
	Len       uint64 `json:"len,omitempty"`
	Offset    uint64 `json:"offset,omitempty"`
}

// statusOK is the status text of a successful forwarded call.
const statusOK = "OK"

func statusText(err error) string {
	if err == nil {
		return statusOK
	}
	return err.Error()
}

// The record constructors below are the only places records are built, one
// per payload shape, so a wrapper method cannot emit a record whose payload
// does not match its declared kind.

func generalRecord(ts uint64, op string, lat uint64, status string) Record {
	return Record{Timestamp: ts, Kind: KindGeneral, Op: op, LatencyUS: lat, Status: status}
}

func fileNameRecord(ts uint64, op string, lat uint64, status, fname string) Record {
	return Record{Timestamp: ts, Kind: KindFileName, Op: op, LatencyUS: lat, Status: status, FileName: fname}
}

func fileSizeRecord(ts uint64, op string, lat uint64, status, fname string, size uint64) Record {
	return Record{Timestamp: ts, Kind: KindFileNameAndSize, Op: op, LatencyUS: lat, Status: status, FileName: fname, FileSize: size}
}

func lenRecord(ts uint64, op string, lat uint64, status string, n uint64) Record {
	return Record{Timestamp: ts, Kind: KindLen, Op: op, LatencyUS: lat, Status: status, Len: n}
}

func lenOffsetRecord(ts uint64, op string, lat uint64, status string, n, off uint64) Record {
	return Record{Timestamp: ts, Kind: KindLenAndOffset, Op: op, LatencyUS: lat, Status: status, Len: n, Offset: off}
}
