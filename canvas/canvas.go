// Package canvas is the in-memory host document model: the named visual
// objects, viewport, selection, and plugin panel state one open document
// carries. It implements core.SceneStore.
package canvas

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"motion-director/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	// Zoom bounds applied to every viewport write.
	MinZoom = 0.02
	MaxZoom = 256.0

	defaultZoom = 1.0
)

// Canvas holds one document's canvas state. All methods are safe for
// concurrent use; each call is a single atomic mutation or read, matching
// the host's serialized event handling.
type Canvas struct {
	mu        sync.RWMutex
	objects   map[string]*core.VisualObject // keyed by object ID
	selection []string
	viewport  core.Viewport
	panel     core.PanelSize
}

func New() *Canvas {
	return &Canvas{
		objects:  make(map[string]*core.VisualObject),
		viewport: core.Viewport{Zoom: defaultZoom},
	}
}

// CreateObject adds an object to the canvas and returns its assigned ID.
// Names are not required to be unique at this layer; uniqueness per naming
// key is the path registry's invariant.
func (c *Canvas) CreateObject(ctx context.Context, obj *core.VisualObject) (string, error) {
	if obj == nil {
		return "", fmt.Errorf("object is required")
	}
	if obj.Name == "" {
		return "", fmt.Errorf("object name is required")
	}

	id := ulid.Make().String()

	c.mu.Lock()
	stored := *obj
	stored.ID = id
	c.objects[id] = &stored
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"object_id":   id,
		"object_name": obj.Name,
		"object_kind": obj.Kind,
	}).Debug("Canvas object created")

	return id, nil
}

// FindByName returns a copy of the first object with the exact name, or
// false when no object matches.
func (c *Canvas) FindByName(ctx context.Context, name string) (*core.VisualObject, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, obj := range c.objects {
		if obj.Name == name {
			found := *obj
			return &found, true
		}
	}
	return nil, false
}

// RemoveByName removes every object whose name matches exactly and returns
// how many were removed. Zero matches is not an error.
func (c *Canvas) RemoveByName(ctx context.Context, name string) int {
	return c.removeWhere(func(obj *core.VisualObject) bool {
		return obj.Name == name
	})
}

// RemoveByPrefix removes every object whose name starts with prefix and
// returns how many were removed.
func (c *Canvas) RemoveByPrefix(ctx context.Context, prefix string) int {
	return c.removeWhere(func(obj *core.VisualObject) bool {
		return strings.HasPrefix(obj.Name, prefix)
	})
}

func (c *Canvas) removeWhere(match func(*core.VisualObject) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, obj := range c.objects {
		if match(obj) {
			delete(c.objects, id)
			removed++
		}
	}

	if removed > 0 {
		c.dropSelectionLocked()
	}
	return removed
}

// dropSelectionLocked prunes selected IDs that no longer resolve.
func (c *Canvas) dropSelectionLocked() {
	kept := c.selection[:0]
	for _, id := range c.selection {
		if _, ok := c.objects[id]; ok {
			kept = append(kept, id)
		}
	}
	c.selection = kept
}

// MoveObject translates the named object to pos. This is the mutation a
// user drag performs on an unlocked marker.
func (c *Canvas) MoveObject(ctx context.Context, name string, pos core.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, obj := range c.objects {
		if obj.Name != name {
			continue
		}
		if obj.Locked {
			return fmt.Errorf("object %s is locked", name)
		}
		obj.Position = pos
		return nil
	}
	return fmt.Errorf("object %s not found", name)
}

// SetSelection replaces the current selection.
func (c *Canvas) SetSelection(ctx context.Context, ids []string) {
	c.mu.Lock()
	c.selection = append([]string(nil), ids...)
	c.mu.Unlock()
}

// Selection returns the currently selected object IDs.
func (c *Canvas) Selection(ctx context.Context) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.selection...)
}

// Viewport returns the current view state.
func (c *Canvas) Viewport(ctx context.Context) core.Viewport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewport
}

// SetViewport updates the view state, clamping zoom to the supported range.
func (c *Canvas) SetViewport(ctx context.Context, v core.Viewport) {
	if v.Zoom < MinZoom {
		v.Zoom = MinZoom
	}
	if v.Zoom > MaxZoom {
		v.Zoom = MaxZoom
	}

	c.mu.Lock()
	c.viewport = v
	c.mu.Unlock()
}

// PanelSize returns the plugin UI panel dimensions.
func (c *Canvas) PanelSize() core.PanelSize {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.panel
}

// Resize updates the plugin UI panel dimensions.
func (c *Canvas) Resize(size core.PanelSize) {
	c.mu.Lock()
	c.panel = size
	c.mu.Unlock()
}

// ObjectCount reports how many objects the canvas holds.
func (c *Canvas) ObjectCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}
