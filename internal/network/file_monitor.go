package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

const (
	watchErrInitBackoff = 100 * time.Millisecond
	watchErrMaxBackoff  = 10 * time.Second
)

// FileMonitor follows a JSON status file maintained by the platform (a
// NetworkManager dispatcher script, a mobile shell, a test harness):
//
//	{"connected": true, "metered": false, "quality": "GOOD",
//	 "downstream_kbps": 4200, "upstream_kbps": 900}
//
// The parent directory is watched so that atomic replacements of the file
// are seen. A missing file means offline. A malformed file keeps the last
// good observation.
type FileMonitor struct {
	path string
	b    *utils.Broadcaster[models.NetworkStatus]

	logger *logger.Logger
}

// NewFileMonitor reads path once and returns a monitor for it.
func NewFileMonitor(path string, logger *logger.Logger) *FileMonitor {
	m := &FileMonitor{
		path:   filepath.Clean(path),
		b:      utils.NewBroadcaster[models.NetworkStatus](),
		logger: logger,
	}
	m.b.Publish(models.NetworkStatus{ObservedAt: time.Now().UTC()})
	m.reload()
	return m
}

func (m *FileMonitor) Current() models.NetworkStatus {
	status, _ := m.b.Latest()
	return status
}

func (m *FileMonitor) Subscribe(ctx context.Context) <-chan models.NetworkStatus {
	return m.b.Subscribe(ctx)
}

// Run watches the status file until ctx is done.
func (m *FileMonitor) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create status file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(m.path), err)
	}

	// the file may have changed between construction and Add
	m.reload()

	errBackoff := watchErrInitBackoff

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != m.path {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			m.reload()
			errBackoff = watchErrInitBackoff

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn().Err(watchErr).
				Str("func", "FileMonitor.Run").
				Dur("backoff", errBackoff).
				Msg("status file watcher error")

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(errBackoff):
			}
			errBackoff = min(errBackoff*2, watchErrMaxBackoff)
			m.reload()
		}
	}
}

func (m *FileMonitor) reload() {
	status, err := readStatusFile(m.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		status = models.NetworkStatus{Connected: false}
	case err != nil:
		m.logger.Warn().Err(err).
			Str("func", "FileMonitor.reload").
			Str("path", m.path).
			Msg("unreadable status file, keeping last observation")
		return
	}

	status = Normalize(status, time.Now().UTC())

	prev, _ := m.b.Latest()
	if sameStatus(prev, status) {
		return
	}

	m.logger.Info().
		Bool("connected", status.Connected).
		Str("quality", status.Quality.String()).
		Bool("metered", status.Metered).
		Msg("network status changed")
	m.b.Publish(status)
}

func readStatusFile(path string) (models.NetworkStatus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.NetworkStatus{}, err
	}

	var status models.NetworkStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return models.NetworkStatus{}, fmt.Errorf("decode status file: %w", err)
	}
	return status, nil
}

func sameStatus(a, b models.NetworkStatus) bool {
	return a.Connected == b.Connected &&
		a.Quality == b.Quality &&
		a.Metered == b.Metered
}
