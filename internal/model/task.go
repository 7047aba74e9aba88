package model

import (
	"fmt"
	"math"
	"time"
)

type TaskState string

const (
	StateQueued     TaskState = "queued"
	StateProcessing TaskState = "processing"
	StateSkipped    TaskState = "skipped"
	StateDone       TaskState = "done"
	StateFailed     TaskState = "failed"
)

// Terminal reports whether a task in this state will never change again.
func (s TaskState) Terminal() bool {
	return s == StateSkipped || s == StateDone || s == StateFailed
}

type FormatKind string

const (
	KindPDF         FormatKind = "pdf"
	KindOffice      FormatKind = "office"
	KindImage       FormatKind = "image"
	KindUnsupported FormatKind = "unsupported"
	KindOther       FormatKind = "other"
)

// Task tracks one submitted file through the compression lifecycle.
// OriginalName, OriginalSize, Data and FormatKind are immutable after
// intake; everything else is mutated only by the task manager.
type Task struct {
	ID              string     `json:"id"`
	OriginalName    string     `json:"original_name"`
	OriginalSize    int64      `json:"original_size"`
	FormatKind      FormatKind `json:"format_kind"`
	State           TaskState  `json:"state"`
	Progress        int        `json:"progress"`
	CompressedSize  int64      `json:"compressed_size,omitempty"`
	SavingsPercent  int        `json:"savings_percent"`
	RealCompression bool       `json:"real_compression"`
	StatusMessage   string     `json:"status_message,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	DownloadURL     string     `json:"download_url,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	Data   []byte `json:"-"`
	Result []byte `json:"-"`
}

// Event is the one-way notification the task manager emits to the
// presentation layer whenever a task changes.
type Event struct {
	TaskID   string     `json:"task_id"`
	State    TaskState  `json:"state"`
	Progress int        `json:"progress"`
	Savings  int        `json:"savings"`
	Real     bool       `json:"real"`
	Message  string     `json:"message,omitempty"`
	Kind     FormatKind `json:"kind"`
}

// Savings returns the size reduction percentage, clamped so that an
// output larger than the input never reports negative savings.
func Savings(originalSize, compressedSize int64) int {
	if originalSize <= 0 {
		return 0
	}
	s := int(math.Round((1 - float64(compressedSize)/float64(originalSize)) * 100))
	if s < 0 {
		return 0
	}
	return s
}

// FormatBytes renders a byte count for log lines and status payloads.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d Bytes", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %s", float64(n)/float64(div), [...]string{"KB", "MB", "GB", "TB"}[exp])
}
