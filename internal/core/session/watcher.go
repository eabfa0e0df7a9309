package session

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/codex-audit/internal/util"
)

// TranscriptEvent signals that a transcript file changed on disk.
type TranscriptEvent struct {
	Path string
	Op   fsnotify.Op
}

// FileWatcher watches the session-log root for transcript writes. The agent
// runtime creates dated subdirectories as sessions start, so directories that
// appear while watching are added to the watch set on the fly.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	events  chan TranscriptEvent
}

// NewFileWatcher starts watching root recursively.
func NewFileWatcher(root string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		events:  make(chan TranscriptEvent, 100),
	}

	if err := fw.addTree(root); err != nil {
		watcher.Close()
		return nil, err
	}

	go fw.processEvents()

	return fw, nil
}

// addTree registers every directory under path with the watcher.
func (fw *FileWatcher) addTree(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return fw.watcher.Add(p)
		}
		return nil
	})
}

func (fw *FileWatcher) processEvents() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				close(fw.events)
				return
			}

			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addTree(event.Name); err != nil {
						util.LogErrorf("cannot watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}

			if isTranscriptEvent(event.Name, event.Op) {
				fw.events <- TranscriptEvent{Path: event.Name, Op: event.Op}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				close(fw.events)
				return
			}
			util.LogErrorf("file monitoring error: %v", err)
		}
	}
}

// isTranscriptEvent reports whether a filesystem event is a transcript write
// worth ingesting. Only .jsonl files matter, and only creations and writes;
// renames, removals and chmods carry no new bytes.
func isTranscriptEvent(name string, op fsnotify.Op) bool {
	if filepath.Ext(name) != ".jsonl" {
		return false
	}
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create)
}

// Events returns the stream of transcript change notifications.
func (fw *FileWatcher) Events() <-chan TranscriptEvent {
	return fw.events
}

// Close stops the watcher.
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
