package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
	"github.com/zainab674/project-plus-sub002/pkg/config"
)

// objectPutter is the subset of the MinIO client used by the archive
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader *bytes.Reader, size int64, contentType string) error
}

// TranscriptArchive uploads finalized transcripts to MinIO as JSON documents
type TranscriptArchive struct {
	objects objectPutter
	bucket  string
}

// NewTranscriptArchive connects to MinIO and makes sure the bucket exists
func NewTranscriptArchive(ctx context.Context, cfg *config.StorageConfig) (*TranscriptArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	if err := ensureBucket(ctx, client, cfg.BucketName); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return &TranscriptArchive{
		objects: &minioPutter{client: client},
		bucket:  cfg.BucketName,
	}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ObjectName returns the object key of an archive written at the given time
func ObjectName(meetingID string, at time.Time) string {
	return fmt.Sprintf("transcripts/%s/%d.json", meetingID, at.Unix())
}

// ArchiveTranscripts uploads the archive and returns its object key
func (a *TranscriptArchive) ArchiveTranscripts(ctx context.Context, archive *entities.TranscriptArchive) (string, error) {
	payload, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript archive: %w", err)
	}

	objectName := ObjectName(archive.Summary.MeetingID, archive.ArchivedAt)
	if err := a.objects.PutObject(ctx, a.bucket, objectName, bytes.NewReader(payload), int64(len(payload)), "application/json"); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return objectName, nil
}

type minioPutter struct {
	client *minio.Client
}

func (p *minioPutter) PutObject(ctx context.Context, bucketName, objectName string, reader *bytes.Reader, size int64, contentType string) error {
	_, err := p.client.PutObject(ctx, bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}
