// ABOUTME: Live config reload: watches the mix config file and pushes edits into the shared config
// ABOUTME: Adapted from the playlist sorter's view-mode file watcher, repurposed from playlist-file to config-file tailing

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stojg/mixopt/internal/config"
	"github.com/stojg/mixopt/internal/debuglog"
)

// watchConfig watches path for writes and reloads it into shared on
// each one. An Optimize call already running keeps the Input it was
// started with, so a reloaded config is not applied to that run. It
// runs until stop is closed.
func watchConfig(path string, shared *config.Shared, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch config file %s: %w", path, err)
	}

	for {
		select {
		case <-stop:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Write != fsnotify.Write {
				continue
			}

			// debounce: give the writer time to finish an atomic rename/write
			time.Sleep(100 * time.Millisecond)

			cfg, err := config.Load(path)
			if err != nil {
				debuglog.Debugf("[CONFIG WATCH] reload failed: %v", err)
				log.Printf("warning: config reload failed, keeping previous values: %v", err)

				continue
			}

			shared.Update(cfg)
			debuglog.Debugf("[CONFIG WATCH] reloaded %s", path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			debuglog.Debugf("[CONFIG WATCH] error: %v", err)
		}
	}
}
