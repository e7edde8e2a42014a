package v1alpha1

// JobStatus is the status reported by GET /status/{file_id}.
type JobStatus string

const (
	JobStatusPending     JobStatus = "pending"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusDone        JobStatus = "done"
	JobStatusError       JobStatus = "error"
	JobStatusUnknown     JobStatus = "unknown"
)

// Format is the requested output format.
type Format string

const (
	FormatMP4 Format = "mp4"
	FormatMP3 Format = "mp3"
)

// StartDownloadResponse is returned by POST /start-download.
type StartDownloadResponse struct {
	FileID string `json:"file_id"`
}

// StatusResponse is returned by GET /status/{file_id}.
type StatusResponse struct {
	Status JobStatus `json:"status"`
	File   string    `json:"file,omitempty"`
	Error  string    `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Info struct {
	GitCommit   string `json:"gitCommit"`
	VersionName string `json:"versionName"`
}

// StringToJobStatus maps a stored status to the wire value. Unknown values are
// passed through unchanged.
func StringToJobStatus(s string) JobStatus {
	switch s {
	case string(JobStatusPending):
		return JobStatusPending
	case string(JobStatusDownloading):
		return JobStatusDownloading
	case string(JobStatusDone):
		return JobStatusDone
	case string(JobStatusError):
		return JobStatusError
	default:
		return JobStatus(s)
	}
}

// IsTerminal reports whether pollers should stop on this status.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusError
}
