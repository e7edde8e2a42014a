package tui

import "sync"

// Screen is the controller view of the terminal UI. The controller writes to
// it from its own goroutines and the bubbletea model reads a copy on every
// refresh tick.
type Screen struct {
	mu    sync.Mutex
	state screenState
}

type screenState struct {
	Status          string
	LinkHref        string
	LinkLabel       string
	Progress        float64
	ProgressVisible bool
	ButtonVisible   bool
	Alert           string
}

func (s *Screen) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = text
	s.state.LinkHref = ""
	s.state.LinkLabel = ""
}

func (s *Screen) ShowDownloadLink(href, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = ""
	s.state.LinkHref = href
	s.state.LinkLabel = label
}

func (s *Screen) SetProgress(percent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Progress = percent
}

func (s *Screen) SetProgressVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ProgressVisible = visible
}

func (s *Screen) SetDownloadButtonVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ButtonVisible = visible
}

func (s *Screen) Alert(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Alert = message
}

// DismissAlert clears the pending alert.
func (s *Screen) DismissAlert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Alert = ""
}

func (s *Screen) snapshot() screenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
