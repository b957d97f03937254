package core

import "context"

type (
	// Point is a 2D coordinate in canvas units.
	Point struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// PathSpec describes one directed motion path between two scene
	// viewpoints. Control is only meaningful when ArcEnabled is set; a
	// disabled arc renders as the straight segment Start->End.
	// SceneIndex is nil for the single global (unscoped) path.
	PathSpec struct {
		Start      Point `json:"start"`
		End        Point `json:"end"`
		Control    Point `json:"control"`
		ArcEnabled bool  `json:"isArcEnabled"`
		SceneIndex *int  `json:"sceneIndex,omitempty"`
	}

	// ObjectKind discriminates the visual role of a canvas object.
	ObjectKind string

	// Style is the fixed visual appearance of a canvas object.
	Style struct {
		Stroke       string  `json:"stroke"`
		StrokeWeight float64 `json:"strokeWeight"`
		Opacity      float64 `json:"opacity"`
	}

	// VisualObject is a named object on the host canvas. Objects are
	// addressed by Name; the ID is the canvas-assigned handle.
	VisualObject struct {
		ID         string     `json:"id"`
		Name       string     `json:"name"`
		Kind       ObjectKind `json:"kind"`
		SceneIndex *int       `json:"sceneIndex,omitempty"`
		Path       PathSpec   `json:"path"`
		Position   Point      `json:"position"`
		Style      Style      `json:"style"`
		Locked     bool       `json:"locked"`
	}

	// Viewport is a captured view state: center coordinates plus zoom.
	Viewport struct {
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		Zoom float64 `json:"zoom"`
	}

	// PanelSize is the plugin UI panel dimensions in pixels.
	PanelSize struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	// SceneStore is the host canvas the path registry draws on. Removals
	// with zero matches are not errors; FindByName reports absence via the
	// bool return.
	SceneStore interface {
		CreateObject(ctx context.Context, obj *VisualObject) (string, error)
		FindByName(ctx context.Context, name string) (*VisualObject, bool)
		RemoveByName(ctx context.Context, name string) int
		RemoveByPrefix(ctx context.Context, prefix string) int
		MoveObject(ctx context.Context, name string, pos Point) error
		SetSelection(ctx context.Context, ids []string)
		Selection(ctx context.Context) []string
		Viewport(ctx context.Context) Viewport
		SetViewport(ctx context.Context, v Viewport)
	}
)

const (
	KindPathLine      ObjectKind = "path-line"
	KindControlMarker ObjectKind = "control-marker"
)
