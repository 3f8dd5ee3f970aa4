package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vega/engine/core"
)

// liveController watches a TOML file of control values and routes every
// change to the attached scene through the command dispatcher.
type liveController struct {
	path    string
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// WatchLiveControls starts applying updates from the TOML file at path to
// the attached scene's live controls. The file maps control labels to
// numeric values or text. An existing watcher is stopped first.
func (c *Context) WatchLiveControls(path string) error {
	c.stopLiveControls()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create the live-control watcher: %w", err)
	}
	// Watch the directory: editors replace files on save, which drops a
	// direct file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("could not watch %q: %w", path, err)
	}

	live := &liveController{path: path, watcher: watcher}
	live.wg.Add(1)
	go live.run(c)
	c.live = live

	// Apply the initial state if the file already exists.
	if _, err := os.Stat(path); err == nil {
		c.applyLiveControls(path)
	}
	return nil
}

// stopLiveControls terminates the watcher goroutine. It must not be
// called from the worker goroutine.
func (c *Context) stopLiveControls() {
	if c.live == nil {
		return
	}
	c.live.watcher.Close()
	c.live.wg.Wait()
	c.live = nil
}

func (l *liveController) run(c *Context) {
	defer l.wg.Done()
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if event.Name != l.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c.applyLiveControls(l.path)
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			core.LogWarn("live-control watcher: %v", err)
		}
	}
}

func (c *Context) applyLiveControls(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		core.LogWarn("could not read live controls %q: %v", path, err)
		return
	}

	values := map[string]interface{}{}
	if err := toml.Unmarshal(data, &values); err != nil {
		core.LogWarn("could not parse live controls %q: %v", path, err)
		return
	}

	err = c.dispatch(func() error {
		if !c.configured || c.scn == nil {
			return nil
		}
		for label, raw := range values {
			var value float64
			var text string
			switch v := raw.(type) {
			case float64:
				value = v
			case int64:
				value = float64(v)
			case bool:
				if v {
					value = 1
				}
			case string:
				text = v
			default:
				core.LogWarn("live control %q has unsupported type %T", label, raw)
				continue
			}
			if err := c.controls.ApplyControl(label, value, text); err != nil {
				core.LogWarn("live control %q: %v", label, err)
			}
		}
		return nil
	})
	if err != nil {
		core.LogWarn("could not apply live controls: %v", err)
	}
}
