// Package paths exposes the path registry over HTTP for non-socket
// clients: draw, clear, and control-point lookup per document.
package paths

import (
	"encoding/json"
	"net/http"
	"strconv"

	"motion-director/canvas"
	"motion-director/core"
	pathreg "motion-director/paths"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	ControlPointResponse struct {
		SceneIndex *int        `json:"sceneIndex,omitempty"`
		Point      *core.Point `json:"point"`
	}

	ClearResponse struct {
		Cleared bool `json:"cleared"`
	}
)

// sceneScope parses the optional "scene" query parameter. ok is false when
// the parameter is present but not an integer.
func sceneScope(r *http.Request) (*int, bool) {
	raw := r.URL.Query().Get("scene")
	if raw == "" {
		return nil, true
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &idx, true
}

// HandleDraw draws the path described by the request body on the document's
// canvas. With the arc disabled the scope is cleared instead, mirroring the
// plugin message surface.
func HandleDraw(hub *canvas.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		documentID := chi.URLParam(r, "id")

		var spec core.PathSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			logrus.WithField("error", err).Error("Failed to decode path spec")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid path spec"})
			return
		}

		registry := pathreg.NewRegistry(hub.Get(documentID))
		if !spec.ArcEnabled {
			registry.Clear(r.Context(), spec.SceneIndex)
			render.JSON(w, r, ClearResponse{Cleared: true})
			return
		}

		if err := registry.Draw(r.Context(), spec); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":       err,
				"document_id": documentID,
			}).Error("Failed to draw path")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to draw path"})
			return
		}

		render.Status(r, http.StatusOK)
	}
}

// HandleClear clears the path objects for one scene (?scene=N) or all of
// them when no scope is given.
func HandleClear(hub *canvas.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		documentID := chi.URLParam(r, "id")

		scope, ok := sceneScope(r)
		if !ok {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid scene index"})
			return
		}

		registry := pathreg.NewRegistry(hub.Get(documentID))
		registry.Clear(r.Context(), scope)

		render.JSON(w, r, ClearResponse{Cleared: true})
	}
}

// HandleGetControlPoint returns the current control-marker position for a
// scene, or a null point when no marker exists.
func HandleGetControlPoint(hub *canvas.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		documentID := chi.URLParam(r, "id")

		scope, ok := sceneScope(r)
		if !ok {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid scene index"})
			return
		}

		registry := pathreg.NewRegistry(hub.Get(documentID))
		point := registry.ControlPoint(r.Context(), scope)

		render.JSON(w, r, ControlPointResponse{SceneIndex: scope, Point: point})
	}
}
