package projects

import (
	"errors"
	"io"
	"net/http"

	"motion-director/core"
	"motion-director/handlers/auth"
	"motion-director/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

func HandleList(store core.ProjectStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		projects, err := store.List(r.Context(), claims.Subject)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"ownerID": claims.Subject,
			}).Error("Failed to list projects")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list projects"})
			return
		}

		// If projects is nil (e.g., owner has none), return an empty slice instead of null.
		if projects == nil {
			projects = []*core.Project{}
		}

		render.JSON(w, r, projects)
	}
}

func HandleGet(store core.ProjectStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		name := chi.URLParam(r, "name")
		if name == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Project name is required"})
			return
		}

		project, err := store.Get(r.Context(), claims.Subject, name)
		if err != nil {
			log := logrus.WithFields(logrus.Fields{
				"error":   err,
				"ownerID": claims.Subject,
				"name":    name,
			})
			if errors.Is(err, core.ErrProjectNotFound) {
				log.Warn("Project not found")
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Project not found"})
				return
			}
			log.Error("Failed to get project")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to get project"})
			return
		}

		// The project blob is returned as raw bytes; its schema belongs to
		// the plugin UI.
		w.Header().Set("Content-Type", "application/json")
		w.Write(project.Data)
	}
}

func HandleSave(store core.ProjectStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		name := chi.URLParam(r, "name")
		if name == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Project name is required"})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error": err,
				"name":  name,
			}).Error("Failed to read request body")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		project := &core.Project{
			Name:    name,
			OwnerID: claims.Subject,
			Data:    body,
		}

		if err := store.Save(r.Context(), project); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"ownerID": claims.Subject,
				"name":    name,
			}).Error("Failed to save project")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to save project"})
			return
		}

		render.Status(r, http.StatusOK)
	}
}

func HandleDelete(store core.ProjectStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		name := chi.URLParam(r, "name")
		if name == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Project name is required"})
			return
		}

		if err := store.Delete(r.Context(), claims.Subject, name); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"ownerID": claims.Subject,
				"name":    name,
			}).Error("Failed to delete project")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to delete project"})
			return
		}

		render.Status(r, http.StatusOK)
	}
}
