package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"motion-director/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
)

// storedProject is the S3 object body for a project; the envelope carries
// the metadata List needs without a second round trip.
type storedProject struct {
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	s3Client := s3.NewFromConfig(cfg)

	return &s3Store{
		s3Client: s3Client,
		bucket:   bucketName,
	}
}

// projectKey builds the object key for a project, rejecting names that
// could escape the owner prefix.
func (s *s3Store) projectKey(ownerID, name string) (string, error) {
	if path.Base(name) != name {
		return "", fmt.Errorf("invalid project name: must not be a path")
	}
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid project name: must not be empty or a dot directory")
	}
	return path.Join(ownerID, name), nil
}

// ProjectStore implementation
func (s *s3Store) List(ctx context.Context, ownerID string) ([]*core.Project, error) {
	prefix := ownerID + "/"
	output, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for owner %s: %v", ownerID, err)
	}

	projects := make([]*core.Project, 0, len(output.Contents))
	for _, object := range output.Contents {
		resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    object.Key,
		})
		if err != nil {
			log.Printf("warn: failed to get object %s: %v", *object.Key, err)
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("warn: failed to read object body %s: %v", *object.Key, err)
			continue
		}

		var stored storedProject
		if err := json.Unmarshal(data, &stored); err != nil {
			log.Printf("warn: failed to unmarshal project %s: %v", *object.Key, err)
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

	return projects, nil
}

func (s *s3Store) Get(ctx context.Context, ownerID, name string) (*core.Project, error) {
	key, err := s.projectKey(ownerID, name)
	if err != nil {
		return nil, err
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, core.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project %s: %v", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read project data: %v", err)
	}

	var stored storedProject
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project data: %v", err)
	}

	return &core.Project{
		Name:      stored.Name,
		OwnerID:   stored.OwnerID,
		Data:      stored.Data,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

func (s *s3Store) Save(ctx context.Context, project *core.Project) error {
	key, err := s.projectKey(project.OwnerID, project.Name)
	if err != nil {
		return err
	}

	// Preserve CreatedAt on overwrite
	if project.CreatedAt.IsZero() {
		existing, err := s.Get(ctx, project.OwnerID, project.Name)
		if err == nil && existing != nil {
			project.CreatedAt = existing.CreatedAt
		} else {
			project.CreatedAt = time.Now()
		}
	}
	project.UpdatedAt = time.Now()

	stored := storedProject{
		Name:      project.Name,
		OwnerID:   project.OwnerID,
		Data:      project.Data,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %v", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to save project %s: %v", project.Name, err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, ownerID, name string) error {
	key, err := s.projectKey(ownerID, name)
	if err != nil {
		return err
	}
	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete project %s: %v", name, err)
	}
	return nil
}

// ExportStore implementation
func (s *s3Store) FindID(ctx context.Context, id string) (*core.Export, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get export with id %s: %v", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export data: %v", err)
	}

	export := core.Export{
		Data: *bytes.NewBuffer(data),
	}

	return &export, nil
}

func (s *s3Store) Create(ctx context.Context, export *core.Export) (string, error) {
	id := ulid.Make().String()

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
		Body:   bytes.NewReader(export.Data.Bytes()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %v", err)
	}

	return id, nil
}
