package config

import (
	"context"
	"crypto/sha256"
	"os"
	"time"
)

// fileStamp is what a poll can see without reading the file.
type fileStamp struct {
	mod  time.Time
	size int64
}

func statFile(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{mod: info.ModTime(), size: info.Size()}, nil
}

func (s fileStamp) equal(o fileStamp) bool {
	return s.mod.Equal(o.mod) && s.size == o.size
}

// restaurantWatcher reloads once a changed stamp has held for a full poll
// interval, so an editor's partial write is not parsed. A touched file whose
// bytes are unchanged is not reported again.
type restaurantWatcher struct {
	path     string
	onUpdate func(*RestaurantConfig)
	onError  func(error)

	last    fileStamp
	pending *fileStamp
	sum     [sha256.Size]byte
}

func newRestaurantWatcher(path string, onUpdate func(*RestaurantConfig), onError func(error)) (*restaurantWatcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseRestaurantConfig(data)
	if err != nil {
		return nil, err
	}
	st, err := statFile(path)
	if err != nil {
		return nil, err
	}
	w := &restaurantWatcher{path: path, onUpdate: onUpdate, onError: onError, last: st, sum: sha256.Sum256(data)}
	if onUpdate != nil {
		onUpdate(cfg)
	}
	return w, nil
}

func (w *restaurantWatcher) poll() {
	st, err := statFile(w.path)
	if err != nil {
		return // file being replaced; try next tick
	}
	if st.equal(w.last) {
		w.pending = nil
		return
	}
	if w.pending == nil || !w.pending.equal(st) {
		w.pending = &st
		return
	}

	w.pending = nil
	w.last = st
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.fail(err)
		return
	}
	sum := sha256.Sum256(data)
	if sum == w.sum {
		return
	}
	cfg, err := ParseRestaurantConfig(data)
	if err != nil {
		w.fail(err)
		return
	}
	w.sum = sum
	if w.onUpdate != nil {
		w.onUpdate(cfg)
	}
}

func (w *restaurantWatcher) fail(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// WatchRestaurant reloads restaurant.yaml on change and calls onUpdate with
// the latest config. The initial load happens before the watch loop starts.
// Reload failures keep the previous config; onError, when set, is told why.
func WatchRestaurant(ctx context.Context, path string, interval time.Duration, onUpdate func(*RestaurantConfig), onError func(error)) error {
	if path == "" {
		path = "configs/restaurant.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	w, err := newRestaurantWatcher(path, onUpdate, onError)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.poll()
			}
		}
	}()

	return nil
}
