package events

// JobEvent describes a download job transition.
type JobEvent struct {
	FileID   string  `json:"file_id"`
	Format   string  `json:"format"`
	Status   string  `json:"status"`
	File     string  `json:"file,omitempty"`
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration_seconds,omitempty"`
}
