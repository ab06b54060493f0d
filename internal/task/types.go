package task

import "time"

// Type identifies one of the fixed batch operations. The set is closed;
// trackers are keyed by it rather than by generated ids.
type Type string

const (
	TypePDFToZip      Type = "pdfToZip"
	TypeImagesToPDF   Type = "imagesToPdf"
	TypeTextExport    Type = "textExport"
	TypePDFPassword   Type = "pdfPassword"
	TypePDFMerge      Type = "pdfMerge"
	TypeImageConvert  Type = "imageConvert"
	TypeImageCompress Type = "imageCompress"
	TypeQRGenerate    Type = "qrGenerate"
	TypeImageSplit    Type = "imageSplit"
)

// Types returns all task types in display order.
func Types() []Type {
	return []Type{
		TypePDFToZip,
		TypeImagesToPDF,
		TypeTextExport,
		TypePDFPassword,
		TypePDFMerge,
		TypeImageConvert,
		TypeImageCompress,
		TypeQRGenerate,
		TypeImageSplit,
	}
}

// ValidType reports whether t is one of the known task types.
func ValidType(t Type) bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityError    Severity = "error"
	SeverityProgress Severity = "progress"
)

// LogEntry is one append-only log line of a task run.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
}

// State is the tracked record of one task type. Result holds the path of
// the produced artifact once the run completed.
type State struct {
	Type     Type       `json:"type"`
	Status   Status     `json:"status"`
	Progress int        `json:"progress"`
	Total    int        `json:"total"`
	Logs     []LogEntry `json:"logs"`
	FileName string     `json:"file_name,omitempty"`
	Result   string     `json:"result,omitempty"`
}

// Options configures a Tracker.
type Options struct {
	DataDir string
}
