package domain

import "time"

// Outcome is the terminal state of a single upload invocation
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailed
	OutcomeCancelled
)

// String returns the lowercase name used in logs and history
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// cancelledMessage is the message carried by every Cancelled result
const cancelledMessage = "upload cancelled by user"

// ObjectRef identifies an object stored by the remote backend
type ObjectRef struct {
	ID      string
	Name    string
	WebLink string // browser-viewable link, may be empty
}

// TransferRequest is the per-invocation input of an upload.
// The cancellation signal travels separately as the call's context.
type TransferRequest struct {
	UploadID string // correlation id for logs and history
	Path     string
	FolderID string // empty means the store root / default location
}

// TransferResult is returned exactly once per upload invocation.
// Resolution is stamped after the fact and records which conflict branch
// produced the result; it never feeds back into a decision.
type TransferResult struct {
	Outcome    Outcome
	ObjectID   string
	Name       string
	WebLink    string
	Message    string
	Resolution *ConflictDecision
}

// Succeeded builds a Success result from the object the backend returned
func Succeeded(ref ObjectRef) TransferResult {
	return TransferResult{
		Outcome:  OutcomeSuccess,
		ObjectID: ref.ID,
		Name:     ref.Name,
		WebLink:  ref.WebLink,
	}
}

// Failed builds a Failed result carrying a human-readable message
func Failed(message string) TransferResult {
	return TransferResult{Outcome: OutcomeFailed, Message: message}
}

// Cancelled builds a Cancelled result
func Cancelled() TransferResult {
	return TransferResult{Outcome: OutcomeCancelled, Message: cancelledMessage}
}

// IsSuccess reports whether the upload completed
func (r TransferResult) IsSuccess() bool { return r.Outcome == OutcomeSuccess }

// WithResolution returns a copy tagged with the conflict branch that produced it
func (r TransferResult) WithResolution(d ConflictDecision) TransferResult {
	r.Resolution = &d
	return r
}

// UploadRecord is a persisted summary of a finished upload
type UploadRecord struct {
	UploadID   string    `json:"upload_id"`
	FileName   string    `json:"file_name"`
	Size       int64     `json:"size"`
	ObjectID   string    `json:"object_id,omitempty"`
	WebLink    string    `json:"web_link,omitempty"`
	Outcome    string    `json:"outcome"`
	Resolution string    `json:"resolution,omitempty"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}

// RemoteFolder is a folder in the remote store.
// HasChildren is a one-shot hint for lazy expansion, not a live count.
type RemoteFolder struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ParentID    string `json:"parent_id,omitempty"`
	HasChildren bool   `json:"has_children"`
}

// UploadSettings are the configuration values an upload reads at call time
type UploadSettings struct {
	DefaultFolderID          string
	DefaultFolderName        string
	ShowProgress             bool
	NotifyOnComplete         bool
	OpenInBrowserAfterUpload bool
}
