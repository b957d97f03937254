// Package paths manages the lifecycle of motion-path visuals on a canvas:
// one path line and, for arced paths, one draggable control marker per
// scene index. Objects are addressed by a fixed string naming convention so
// state survives in persisted canvases without stored handles.
package paths

import (
	"context"
	"fmt"
	"strconv"

	"motion-director/core"

	"github.com/sirupsen/logrus"
)

// Base names of the two object roles. Scene-scoped objects append
// "_<sceneIndex>". These exact strings are load-bearing: lookup and bulk
// clearing are prefix/name matches against them, so they must never prefix
// an unrelated object's name.
const (
	PathLineBaseName = "MotionDirector_Path_Line"
	MarkerBaseName   = "MotionDirector_CP_Marker"
)

// Fixed visual styling for the two object roles.
var (
	lineStyle = core.Style{
		Stroke:       "#18A0FB",
		StrokeWeight: 2,
		Opacity:      0.8,
	}
	markerStyle = core.Style{
		Stroke:       "#F24822",
		StrokeWeight: 1.5,
		Opacity:      1,
	}
)

// PathLineName returns the canvas name of the path line for a scene index,
// or the global path line when sceneIndex is nil.
func PathLineName(sceneIndex *int) string {
	return scopedName(PathLineBaseName, sceneIndex)
}

// MarkerName returns the canvas name of the control marker for a scene
// index, or the global marker when sceneIndex is nil.
func MarkerName(sceneIndex *int) string {
	return scopedName(MarkerBaseName, sceneIndex)
}

func scopedName(base string, sceneIndex *int) string {
	if sceneIndex == nil {
		return base
	}
	return base + "_" + strconv.Itoa(*sceneIndex)
}

// Registry draws and clears motion-path visuals on a scene store.
type Registry struct {
	scene core.SceneStore
}

func NewRegistry(scene core.SceneStore) *Registry {
	return &Registry{scene: scene}
}

// Clear removes the path line and control marker for one scene index, or
// every path object on the canvas when sceneIndex is nil. Removing nothing
// is a no-op.
func (r *Registry) Clear(ctx context.Context, sceneIndex *int) {
	var removed int
	if sceneIndex == nil {
		removed = r.scene.RemoveByPrefix(ctx, PathLineBaseName)
		removed += r.scene.RemoveByPrefix(ctx, MarkerBaseName)
	} else {
		removed = r.scene.RemoveByName(ctx, PathLineName(sceneIndex))
		removed += r.scene.RemoveByName(ctx, MarkerName(sceneIndex))
	}

	if removed > 0 {
		logrus.WithFields(logrus.Fields{
			"scene_index": formatIndex(sceneIndex),
			"removed":     removed,
		}).Debug("Cleared path objects")
	}
}

// Draw renders the path described by spec: a quadratic curve through the
// control point when the arc is enabled, a straight segment otherwise. The
// scope is cleared first so at most one line and one marker exist per key,
// and the created objects end up selected.
func (r *Registry) Draw(ctx context.Context, spec core.PathSpec) error {
	r.Clear(ctx, spec.SceneIndex)

	line := &core.VisualObject{
		Name:       PathLineName(spec.SceneIndex),
		Kind:       core.KindPathLine,
		SceneIndex: spec.SceneIndex,
		Path:       spec,
		Style:      lineStyle,
		// The line's geometry is derived from the endpoints and marker, so
		// the object itself must not be draggable.
		Locked: true,
	}
	lineID, err := r.scene.CreateObject(ctx, line)
	if err != nil {
		return fmt.Errorf("failed to create path line: %w", err)
	}
	created := []string{lineID}

	if spec.ArcEnabled {
		marker := &core.VisualObject{
			Name:       MarkerName(spec.SceneIndex),
			Kind:       core.KindControlMarker,
			SceneIndex: spec.SceneIndex,
			Position:   spec.Control,
			Style:      markerStyle,
		}
		markerID, err := r.scene.CreateObject(ctx, marker)
		if err != nil {
			return fmt.Errorf("failed to create control marker: %w", err)
		}
		created = append(created, markerID)
	}

	r.scene.SetSelection(ctx, created)

	logrus.WithFields(logrus.Fields{
		"scene_index": formatIndex(spec.SceneIndex),
		"arc_enabled": spec.ArcEnabled,
	}).Debug("Path drawn")
	return nil
}

// ControlPoint returns the current position of the control marker for a
// scene index, reflecting any drag since it was drawn, or nil when no
// marker exists (arc disabled or never drawn).
func (r *Registry) ControlPoint(ctx context.Context, sceneIndex *int) *core.Point {
	marker, ok := r.scene.FindByName(ctx, MarkerName(sceneIndex))
	if !ok {
		return nil
	}
	pos := marker.Position
	return &pos
}

func formatIndex(sceneIndex *int) string {
	if sceneIndex == nil {
		return "global"
	}
	return strconv.Itoa(*sceneIndex)
}
