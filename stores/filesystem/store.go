package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"motion-director/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// storedProject is the on-disk representation of a project. The blob is
// kept opaque; only the envelope is ours.
type storedProject struct {
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store. Exports live as flat
// ULID-named files under basePath, projects under basePath/<owner>/.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) ownerPath(ownerID string) string {
	return filepath.Join(s.basePath, ownerID)
}

// projectPath resolves a project file path, rejecting names that escape the
// owner directory.
func (s *fsStore) projectPath(ownerID, name string) (string, error) {
	ownerPath := s.ownerPath(ownerID)
	filePath := filepath.Join(ownerPath, name)

	absOwnerPath, err := filepath.Abs(ownerPath)
	if err != nil {
		return "", err
	}
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFilePath, absOwnerPath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid project name: access denied")
	}
	return absFilePath, nil
}

// ProjectStore implementation
func (s *fsStore) List(ctx context.Context, ownerID string) ([]*core.Project, error) {
	ownerPath := s.ownerPath(ownerID)
	log := logrus.WithField("owner_id", ownerID).WithField("path", ownerPath)

	files, err := os.ReadDir(ownerPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("Owner directory does not exist, returning empty list.")
			return []*core.Project{}, nil
		}
		log.WithError(err).Error("Failed to read owner directory")
		return nil, err
	}

	projects := make([]*core.Project, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(ownerPath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read project file %s, skipping", file.Name())
			continue
		}

		var stored storedProject
		if err := json.Unmarshal(data, &stored); err != nil {
			log.WithError(err).Warnf("Failed to unmarshal project file %s, skipping", file.Name())
			continue
		}

		// No blob in list views.
		projects = append(projects, &core.Project{
			Name:      stored.Name,
			OwnerID:   stored.OwnerID,
			CreatedAt: stored.CreatedAt,
			UpdatedAt: stored.UpdatedAt,
		})
	}

	log.Infof("Listed %d projects", len(projects))
	return projects, nil
}

func (s *fsStore) Get(ctx context.Context, ownerID, name string) (*core.Project, error) {
	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "project_name": name})

	filePath, err := s.projectPath(ownerID, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Project file not found")
			return nil, core.ErrProjectNotFound
		}
		log.WithError(err).Error("Failed to read project file")
		return nil, err
	}

	var stored storedProject
	if err := json.Unmarshal(data, &stored); err != nil {
		log.WithError(err).Error("Failed to unmarshal project data")
		return nil, err
	}

	log.Info("Project retrieved successfully")
	return &core.Project{
		Name:      stored.Name,
		OwnerID:   stored.OwnerID,
		Data:      stored.Data,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

func (s *fsStore) Save(ctx context.Context, project *core.Project) error {
	log := logrus.WithFields(logrus.Fields{"owner_id": project.OwnerID, "project_name": project.Name})

	filePath, err := s.projectPath(project.OwnerID, project.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		log.WithError(err).Error("Failed to create owner directory")
		return err
	}

	now := time.Now()
	createdAt := now
	if existing, err := os.ReadFile(filePath); err == nil {
		var prev storedProject
		if err := json.Unmarshal(existing, &prev); err == nil && !prev.CreatedAt.IsZero() {
			createdAt = prev.CreatedAt
		}
	}

	stored := storedProject{
		Name:      project.Name,
		OwnerID:   project.OwnerID,
		Data:      project.Data,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	project.CreatedAt = createdAt
	project.UpdatedAt = now

	log.Info("Saving project")
	data, err := json.Marshal(stored)
	if err != nil {
		log.WithError(err).Error("Failed to marshal project for saving")
		return err
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write project file")
		return err
	}
	return nil
}

func (s *fsStore) Delete(ctx context.Context, ownerID, name string) error {
	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "project_name": name})

	filePath, err := s.projectPath(ownerID, name)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Project file not found for deletion, considered successful.")
			return nil // If it doesn't exist, the goal is achieved.
		}
		log.WithError(err).Error("Failed to delete project file")
		return err
	}

	log.Info("Project deleted successfully")
	return nil
}

// ExportStore implementation
func (s *fsStore) FindID(ctx context.Context, id string) (*core.Export, error) {
	filePath := filepath.Join(s.basePath, id)
	log := logrus.WithField("export_id", id)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("error", "export not found").Warn("Export with specified ID not found")
			return nil, fmt.Errorf("export with id %s not found", id)
		}
		log.WithError(err).Error("Failed to retrieve export")
		return nil, err
	}

	export := core.Export{
		Data: *bytes.NewBuffer(data),
	}

	log.Info("Export retrieved successfully")
	return &export, nil
}

func (s *fsStore) Create(ctx context.Context, export *core.Export) (string, error) {
	id := ulid.Make().String()
	filePath := filepath.Join(s.basePath, id)
	log := logrus.WithFields(logrus.Fields{
		"export_id": id,
		"file_path": filePath,
	})

	if err := os.WriteFile(filePath, export.Data.Bytes(), 0644); err != nil {
		log.WithError(err).Error("Failed to create export")
		return "", err
	}

	log.Info("Export created successfully")
	return id, nil
}
