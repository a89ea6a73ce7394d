package swarm

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchConfig watches the config file and logs when it changes. The
// roster and channel set are immutable for the process lifetime, so a
// change only ever means a restart is needed.
func (s *Swarm) watchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files, which drops a watch
	// held on the file itself.
	if err := watcher.Add(filepath.Dir(s.configPath)); err != nil {
		return err
	}

	target := filepath.Clean(s.configPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.log.Info("config file changed; restart to apply", zap.String("path", s.configPath))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("config watcher error", zap.Error(err))
		}
	}
}
