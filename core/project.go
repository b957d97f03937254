package core

import (
	"bytes"
	"context"
	"errors"
	"time"
)

// ErrProjectNotFound is returned by ProjectStore.Get when no project exists
// under the given owner and name. Callers map it to a null response rather
// than a failure.
var ErrProjectNotFound = errors.New("project not found")

type (
	// Project is a named opaque blob of plugin state. OwnerID is the
	// namespace the project lives under: the authenticated subject on the
	// HTTP surface, the document ID on the socket surface.
	Project struct {
		Name      string    `json:"name"`
		OwnerID   string    `json:"-"`
		Data      []byte    `json:"data,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// ProjectStore defines the persistence layer for named projects.
	// Save is an upsert; the last write wins.
	ProjectStore interface {
		// List returns metadata for all projects under an owner. The
		// returned projects do not carry the Data blob.
		List(ctx context.Context, ownerID string) ([]*Project, error)

		// Get returns a single project, ErrProjectNotFound when absent.
		Get(ctx context.Context, ownerID, name string) (*Project, error)

		// Save creates or overwrites a project, preserving CreatedAt on
		// overwrite.
		Save(ctx context.Context, project *Project) error

		// Delete removes a project.
		Delete(ctx context.Context, ownerID, name string) error
	}

	// Export is an anonymously shared motion setup, addressed by a
	// store-generated ID.
	Export struct {
		Data bytes.Buffer
	}

	ExportStore interface {
		FindID(ctx context.Context, id string) (*Export, error)
		Create(ctx context.Context, export *Export) (string, error)
	}
)
