package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/pkg/photo"
	"github.com/philipparndt/gomeasure/pkg/watcher"
)

// loadPhoto loads a photo and fits it to the display bound
func loadPhoto(path string, maxW, maxH int) (*photo.Photo, error) {
	if !photo.IsSupported(path) {
		return nil, fmt.Errorf("unsupported file type: %s (expected .jpg, .png, .tif or .bmp): %w",
			filepath.Ext(path), measurement.ErrInvalidInput)
	}

	p, err := photo.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", measurement.ErrFileAccess, err)
	}

	if p.FitWithin(maxW, maxH) {
		log.Printf("Fitted %s from %dx%d to %dx%d", filepath.Base(path), p.OriginalWidth, p.OriginalHeight, p.Width, p.Height)
	}
	return p, nil
}

// LoadImage loads the next specimen photo. The calibration and baseline
// carried by the workflow are kept; the view is reset.
func (s *Session) LoadImage(path string) error {
	id, err := measurement.ParseSpecimenID(path)
	if err != nil {
		return err
	}

	p, err := loadPhoto(path, s.config.MaxWidth, s.config.MaxHeight)
	if err != nil {
		return err
	}

	viewW, viewH := s.config.ViewportWidth, s.config.ViewportHeight
	if viewW <= 0 || viewH <= 0 {
		viewW, viewH = float64(p.Width), float64(p.Height)
	}
	s.transform.Reset(float64(p.Width), float64(p.Height), viewW, viewH)

	specimen := measurement.Specimen{
		ID:         id,
		SourcePath: path,
		Image:      p.Image,
		LogPath:    measurement.BatchLogPath(path, s.config.LogExt),
	}
	s.Photo = PhotoState{photo: p, specimen: specimen}
	s.workflow.BeginSpecimen(specimen)

	s.Follow.mu.Lock()
	if abs, err := filepath.Abs(path); err == nil {
		s.Follow.queued = ensureQueued(s.Follow.queued)
		s.Follow.queued[abs] = true
	}
	s.Follow.mu.Unlock()

	return nil
}

// generatedStem matches <stem>_<timestamp>_M and <stem>_<timestamp>_calPoints,
// including the millisecond and counter forms used on name collisions
var generatedStem = regexp.MustCompile(`_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}(\.\d{3})?(-\d+)?_(M|calPoints)$`)

// isGenerated reports whether path is a file this tool wrote itself
func isGenerated(path string) bool {
	return generatedStem.MatchString(photo.Stem(path))
}

// isCandidate reports whether path is a photo to measure
func isCandidate(path string) bool {
	return photo.IsSupported(path) && !isGenerated(path)
}

// ListPhotos returns the measurable photos of a folder in name order
func ListPhotos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w: %w", dir, measurement.ErrFileAccess, err)
	}

	var photos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if isCandidate(path) {
			photos = append(photos, path)
		}
	}
	sort.Strings(photos)
	return photos, nil
}

// FollowFolder watches dir and queues every new photo that appears in it
func (s *Session) FollowFolder(dir string) error {
	if s.Follow.folderWatcher == nil {
		// Create folder watcher with 500ms debounce
		fw, err := watcher.NewFolderWatcher(500*time.Millisecond, isCandidate)
		if err != nil {
			return fmt.Errorf("failed to create folder watcher: %w", err)
		}
		fw.Start()
		s.Follow.folderWatcher = fw
	}

	if err := s.Follow.folderWatcher.Watch([]string{dir}, s.enqueue); err != nil {
		return fmt.Errorf("failed to watch folder: %w", err)
	}
	log.Printf("Following folder for new photos: %s", dir)
	return nil
}

// enqueue runs on the watcher goroutine
func (s *Session) enqueue(path string) {
	s.Follow.mu.Lock()
	s.Follow.queued = ensureQueued(s.Follow.queued)
	if s.Follow.queued[path] {
		s.Follow.mu.Unlock()
		return
	}
	s.Follow.queued[path] = true
	s.Follow.pending = append(s.Follow.pending, path)
	s.Follow.mu.Unlock()

	log.Printf("New photo: %s", filepath.Base(path))
	if s.config.OnNewPhoto != nil {
		s.config.OnNewPhoto(path)
	}
}

// Pending returns the number of queued photos
func (s *Session) Pending() int {
	s.Follow.mu.Lock()
	defer s.Follow.mu.Unlock()
	return len(s.Follow.pending)
}

// LoadNext loads the oldest queued photo. It returns false when the queue is empty.
// A photo that could not be read stays at the head of the queue so it can be
// loaded once it is complete. A photo that is gone or has an unusable name
// is dropped.
func (s *Session) LoadNext() (bool, error) {
	s.Follow.mu.Lock()
	if len(s.Follow.pending) == 0 {
		s.Follow.mu.Unlock()
		return false, nil
	}
	next := s.Follow.pending[0]
	s.Follow.pending = s.Follow.pending[1:]
	s.Follow.mu.Unlock()

	if err := s.LoadImage(next); err != nil {
		if errors.Is(err, measurement.ErrFileAccess) && !errors.Is(err, fs.ErrNotExist) {
			s.Follow.mu.Lock()
			s.Follow.pending = append([]string{next}, s.Follow.pending...)
			s.Follow.mu.Unlock()
		}
		return false, err
	}
	return true, nil
}

func ensureQueued(queued map[string]bool) map[string]bool {
	if queued == nil {
		return make(map[string]bool)
	}
	return queued
}
