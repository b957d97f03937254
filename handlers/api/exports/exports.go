// Package exports handles anonymous sharing of exported motion setups.
package exports

import (
	"bytes"
	"io"
	"net/http"

	"motion-director/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type CreateResponse struct {
	ID string `json:"id"`
}

// HandleCreate stores the request body as a shared export and returns its
// generated ID.
func HandleCreate(store core.ExportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to read request body")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		export := &core.Export{Data: *bytes.NewBuffer(data)}
		id, err := store.Create(r.Context(), export)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to create export")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create export"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateResponse{ID: id})
	}
}

// HandleGet returns a shared export by ID.
func HandleGet(store core.ExportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		export, err := store.FindID(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":     err,
				"export_id": id,
			}).Warn("Failed to get export")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Export not found"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(export.Data.Bytes())
	}
}
