package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"motion-director/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	// Table for anonymously shared exports
	exportTableStmt := `CREATE TABLE IF NOT EXISTS exports (id TEXT PRIMARY KEY, data BLOB);`
	if _, err = db.Exec(exportTableStmt); err != nil {
		log.Fatalf("failed to create exports table: %v", err)
	}

	// Table for named projects
	projectTableStmt := `
	CREATE TABLE IF NOT EXISTS projects (
		name TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		data BLOB,
		created_at DATETIME,
		updated_at DATETIME,
		PRIMARY KEY (owner_id, name)
	);`
	if _, err = db.Exec(projectTableStmt); err != nil {
		log.Fatalf("failed to create projects table: %v", err)
	}

	return &sqliteStore{db}
}

// ProjectStore implementation
func (s *sqliteStore) List(ctx context.Context, ownerID string) ([]*core.Project, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, created_at, updated_at FROM projects WHERE owner_id = ?", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*core.Project
	for rows.Next() {
		var project core.Project
		project.OwnerID = ownerID
		if err := rows.Scan(&project.Name, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, &project)
	}
	return projects, rows.Err()
}

func (s *sqliteStore) Get(ctx context.Context, ownerID, name string) (*core.Project, error) {
	var project core.Project
	project.OwnerID = ownerID
	project.Name = name
	err := s.db.QueryRowContext(ctx, "SELECT data, created_at, updated_at FROM projects WHERE owner_id = ? AND name = ?", ownerID, name).Scan(&project.Data, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *sqliteStore) Save(ctx context.Context, project *core.Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on any error

	var exists bool
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM projects WHERE owner_id = ? AND name = ?", project.OwnerID, project.Name).Scan(&exists)

	now := time.Now()
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	if exists {
		// Overwrite, keeping created_at
		_, err = tx.ExecContext(ctx, "UPDATE projects SET data = ?, updated_at = ? WHERE owner_id = ? AND name = ?", project.Data, now, project.OwnerID, project.Name)
	} else {
		_, err = tx.ExecContext(ctx, "INSERT INTO projects (name, owner_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)", project.Name, project.OwnerID, project.Data, now, now)
	}

	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *sqliteStore) Delete(ctx context.Context, ownerID, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE owner_id = ? AND name = ?", ownerID, name)
	return err
}

// ExportStore implementation
func (s *sqliteStore) FindID(ctx context.Context, id string) (*core.Export, error) {
	log := logrus.WithField("export_id", id)
	log.Debug("Retrieving export by ID")
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM exports WHERE id = ?", id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
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

func (s *sqliteStore) Create(ctx context.Context, export *core.Export) (string, error) {
	id := ulid.Make().String()
	data := export.Data.Bytes()
	log := logrus.WithFields(logrus.Fields{
		"export_id":   id,
		"data_length": len(data),
	})

	_, err := s.db.ExecContext(ctx, "INSERT INTO exports (id, data) VALUES (?, ?)", id, data)
	if err != nil {
		log.WithError(err).Error("Failed to create export")
		return "", err
	}
	log.Info("Export created successfully")
	return id, nil
}
