package cli

import (
	"fmt"
	"io"
	"sync"
)

// LineView prints controller updates as plain lines. Repeated values are
// skipped and the progress is reported in steps of ten percent.
type LineView struct {
	mu         sync.Mutex
	w          io.Writer
	baseURL    string
	lastStatus string
	lastDecile int
}

func NewLineView(w io.Writer, baseURL string) *LineView {
	return &LineView{w: w, baseURL: baseURL, lastDecile: -1}
}

func (v *LineView) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if text == v.lastStatus {
		return
	}
	v.lastStatus = text
	fmt.Fprintln(v.w, text)
}

func (v *LineView) ShowDownloadLink(href, label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastStatus = ""
	fmt.Fprintf(v.w, "%s: %s%s\n", label, v.baseURL, href)
}

func (v *LineView) SetProgress(percent float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	decile := int(percent) / 10
	if decile == v.lastDecile {
		return
	}
	v.lastDecile = decile
	fmt.Fprintf(v.w, "[%3.0f%%]\n", percent)
}

func (v *LineView) SetProgressVisible(visible bool) {
	if !visible {
		v.mu.Lock()
		v.lastDecile = -1
		v.mu.Unlock()
	}
}

func (v *LineView) SetDownloadButtonVisible(bool) {}

func (v *LineView) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "! %s\n", message)
}
