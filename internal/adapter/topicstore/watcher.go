package topicstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store when YAML files in the directory change. Rapid
// event bursts (editors write several events per save) are debounced into a
// single reload. Blocks until the context is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(s.dir); err != nil {
		return err
	}

	slog.Info("topic watcher started",
		slog.String("dir", s.dir),
		slog.Int64("debounce_ms", s.debounce.Milliseconds()))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			slog.Info("topic watcher stopped")
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return errors.New("topic watcher events channel closed")
			}
			if !relevantEvent(event) {
				continue
			}
			slog.Debug("topic file event", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(s.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			if err := s.Load(); err != nil {
				// Keep serving the previous snapshot.
				slog.Error("topic reload failed", slog.Any("error", err))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("topic watcher errors channel closed")
			}
			slog.Error("topic watcher error", slog.Any("error", err))
		}
	}
}

func relevantEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return ext == ".yaml" || ext == ".yml"
}
