package scenario

import (
	"cmp"
	"log"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"warehouse-route-service/internal/domain"
)

// EdgeChange lists routes whose closed flag flipped in the scenario file.
type EdgeChange struct {
	Closed []domain.EdgeSpec
	Opened []domain.EdgeSpec
}

func (c EdgeChange) Empty() bool { return len(c.Closed) == 0 && len(c.Opened) == 0 }

// Watcher follows a scenario file and reports edge open/close edits.
// Everything else in the file is fixed for the lifetime of a run.
type Watcher struct {
	Path    string
	Changes <-chan EdgeChange

	changes chan EdgeChange
	done    chan struct{}
	watcher *fsnotify.Watcher
	closed  map[domain.EdgeSpec]bool
}

// NewWatcher starts from the closed edges of doc, normally the document the
// run was started with.
func NewWatcher(path string, doc *Document) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan EdgeChange, 16)
	return &Watcher{
		Path:    path,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
		closed:  doc.ClosedEdges(),
	}, nil
}

// Start watches the file's directory; editors often replace the file
// instead of writing it in place.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	const debounce = 100 * time.Millisecond
	var pending time.Time
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	target := filepath.Clean(w.Path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if !pending.IsZero() {
					w.reload()
				}
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= debounce {
				pending = time.Time{}
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("scenario watcher error: path=%s err=%v", w.Path, err)
		}
	}
}

func (w *Watcher) reload() {
	doc, err := Load(w.Path)
	if err != nil {
		// Half-written files are common while editing; keep the last good state.
		log.Printf("scenario reload skipped: path=%s err=%v", w.Path, err)
		return
	}

	next := doc.ClosedEdges()
	change := Diff(w.closed, next)
	w.closed = next
	if change.Empty() {
		return
	}
	w.changes <- change
}

// Diff reports which edges became closed and which became open between two
// closed-edge sets.
func Diff(before, after map[domain.EdgeSpec]bool) EdgeChange {
	var c EdgeChange
	for e := range after {
		if !before[e] {
			c.Closed = append(c.Closed, e)
		}
	}
	for e := range before {
		if !after[e] {
			c.Opened = append(c.Opened, e)
		}
	}
	slices.SortFunc(c.Closed, compareEdges)
	slices.SortFunc(c.Opened, compareEdges)
	return c
}

func compareEdges(x, y domain.EdgeSpec) int {
	if c := cmp.Compare(x.NodeA, y.NodeA); c != 0 {
		return c
	}
	return cmp.Compare(x.NodeB, y.NodeB)
}
