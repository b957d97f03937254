package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"motion-director/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// memStore implements both ProjectStore and ExportStore for in-memory
// storage.
type memStore struct {
	mu sync.RWMutex
	// projects is keyed by owner ID, then project name.
	projects map[string]map[string]*core.Project
	exports  map[string]core.Export
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{
		projects: make(map[string]map[string]*core.Project),
		exports:  make(map[string]core.Export),
	}
}

// List returns metadata for all projects under an owner. Part of the
// ProjectStore interface.
func (s *memStore) List(ctx context.Context, ownerID string) ([]*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned, ok := s.projects[ownerID]
	if !ok {
		return []*core.Project{}, nil // No projects for this owner, return empty slice
	}

	projects := make([]*core.Project, 0, len(owned))
	for _, project := range owned {
		// Copy without the blob for the list view.
		listProject := &core.Project{
			Name:      project.Name,
			OwnerID:   project.OwnerID,
			CreatedAt: project.CreatedAt,
			UpdatedAt: project.UpdatedAt,
		}
		projects = append(projects, listProject)
	}

	logrus.WithField("owner_id", ownerID).Infof("Listed %d projects", len(projects))
	return projects, nil
}

// Get returns a single project by name. Part of the ProjectStore interface.
func (s *memStore) Get(ctx context.Context, ownerID, name string) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "project_name": name})

	owned, ok := s.projects[ownerID]
	if !ok {
		log.Warn("Owner has no projects")
		return nil, core.ErrProjectNotFound
	}

	project, ok := owned[name]
	if !ok {
		log.Warn("Project not found for owner")
		return nil, core.ErrProjectNotFound
	}

	log.Info("Project retrieved successfully")
	return project, nil
}

// Save creates or overwrites a project. Part of the ProjectStore interface.
func (s *memStore) Save(ctx context.Context, project *core.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if project.OwnerID == "" {
		return fmt.Errorf("owner ID cannot be empty")
	}
	if project.Name == "" {
		return fmt.Errorf("project name cannot be empty for save operation")
	}

	log := logrus.WithFields(logrus.Fields{"owner_id": project.OwnerID, "project_name": project.Name})

	owned, ok := s.projects[project.OwnerID]
	if !ok {
		owned = make(map[string]*core.Project)
		s.projects[project.OwnerID] = owned
	}

	now := time.Now()
	if existing, exists := owned[project.Name]; exists {
		project.CreatedAt = existing.CreatedAt
		project.UpdatedAt = now
	} else {
		project.CreatedAt = now
		project.UpdatedAt = now
	}

	owned[project.Name] = project
	log.Info("Project saved successfully")
	return nil
}

// Delete removes a project. Part of the ProjectStore interface.
func (s *memStore) Delete(ctx context.Context, ownerID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "project_name": name})

	owned, ok := s.projects[ownerID]
	if !ok {
		log.Warn("Owner has no projects to delete from")
		return fmt.Errorf("owner %s has no projects", ownerID)
	}

	if _, ok := owned[name]; !ok {
		log.Warn("Project not found for deletion")
		return fmt.Errorf("project %s not found for owner %s", name, ownerID)
	}

	delete(owned, name)
	log.Info("Project deleted successfully")
	return nil
}

// FindID retrieves an export by its ID. Part of the ExportStore interface.
func (s *memStore) FindID(ctx context.Context, id string) (*core.Export, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithField("export_id", id)
	if val, ok := s.exports[id]; ok {
		log.Info("Export retrieved successfully")
		return &val, nil
	}
	log.WithField("error", "export not found").Warn("Export with specified ID not found")
	return nil, fmt.Errorf("export with id %s not found", id)
}

// Create stores a new export. Part of the ExportStore interface.
func (s *memStore) Create(ctx context.Context, export *core.Export) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ulid.Make().String()
	s.exports[id] = *export
	log := logrus.WithFields(logrus.Fields{
		"export_id":   id,
		"data_length": len(export.Data.Bytes()),
	})
	log.Info("Export created successfully")

	return id, nil
}
