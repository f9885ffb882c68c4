// Package content loads the website content document and keeps it fresh while the server runs.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"immerseforge-site/pkg/logger"
	"immerseforge-site/pkg/models"
	"immerseforge-site/pkg/utils"
)

var (
	ErrNotLoaded   = errors.New("website content not loaded")
	ErrUnknownPage = errors.New("unknown page")
)

// Snapshot is one successfully loaded version of the content file.
type Snapshot struct {
	Content  models.WebsiteContent
	Raw      []byte
	ETag     string
	LoadedAt time.Time
}

// Store serves the latest valid snapshot of the content file.
type Store struct {
	path     string
	log      logger.Logger
	onReload func(err error)
	debounce time.Duration

	mu      sync.RWMutex
	current *Snapshot
}

// NewStore creates a store for the file at path. onReload may be nil.
func NewStore(path string, log logger.Logger, onReload func(err error)) *Store {
	if onReload == nil {
		onReload = func(error) {}
	}
	return &Store{
		path:     path,
		log:      log,
		onReload: onReload,
		debounce: 250 * time.Millisecond,
	}
}

// Load reads, validates and publishes the content file. On failure the
// previous snapshot stays in place.
func (s *Store) Load() error {
	snap, err := LoadFile(s.path)
	s.onReload(err)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	s.log.Info("Website content loaded",
		logger.String("path", s.path),
		logger.String("etag", snap.ETag),
		logger.Int("navigation_items", len(snap.Content.Navigation)),
	)
	return nil
}

// LoadFile reads and validates a content file without publishing it.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var wc models.WebsiteContent
	if err := json.Unmarshal(data, &wc); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}

	return &Snapshot{
		Content:  wc,
		Raw:      data,
		ETag:     `"` + utils.HashBytes(data)[:32] + `"`,
		LoadedAt: time.Now().UTC(),
	}, nil
}

// Current returns the published snapshot, or nil before the first successful load.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Page returns one page's raw content.
func (s *Store) Page(name string) (json.RawMessage, error) {
	snap := s.Current()
	if snap == nil {
		return nil, ErrNotLoaded
	}

	var page json.RawMessage
	switch name {
	case "home":
		page = snap.Content.Pages.Home
	case "work":
		page = snap.Content.Pages.Work
	case "about":
		page = snap.Content.Pages.About
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, name)
	}
	if len(bytes.TrimSpace(page)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, name)
	}
	return page, nil
}

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched because editors and deploys usually replace the file.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := s.Load(); err != nil {
				s.log.Error("Website content reload failed, keeping previous version",
					logger.String("path", s.path),
					logger.Error(err),
				)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("Content watcher error", logger.Error(err))
		}
	}
}
