package patch

// ✅ RequestResult is the outcome of one request within a batch. Index is
// the request's submission position; Order is its position in the actual
// application sequence (line-anchored first, highest line first).
type RequestResult struct {
	Index   int    // 0-based submission index
	Order   int    // 0-based application position
	Kind    Kind   // Variant of the request
	Applied bool   // Whether the request mutated the buffer
	Detail  string // Human-readable description when applied
	Err     error  // Failure reason when not applied
}

// 📊 Result is the outcome of one apply or preview call.
type Result struct {
	Path              string          // Target file
	OriginalLineCount int             // Lines before the batch
	NewLineCount      int             // Lines after the batch
	SuccessCount      int             // Requests that applied
	FailureCount      int             // Requests that failed
	Written           bool            // Whether the file was replaced on disk
	BackupPath        string          // Backup taken before the write, if any
	Diff              string          // Unified diff of the change
	Changes           []string        // Applied-request descriptions, in application order
	Requests          []RequestResult // Per-request outcomes, in submission order
}

// Success reports whether the batch counts as successful: at least one
// request applied.
func (r *Result) Success() bool {
	return r.SuccessCount > 0
}
