// Package store uploads distance outputs to an S3-compatible object store.
package store

import (
	"context"
	"fmt"
	"github.com/gofrs/uuid"
	"github.com/minio/minio-go/v7"
	miniocredentials "github.com/minio/minio-go/v7/pkg/credentials"
	"log/slog"
	"path/filepath"
	"strings"
)

const DefaultBucket = "resilience-distances"

const runsPrefix = "runs/"

type MinIO interface {
	FPutObject(ctx context.Context, bucketName, objectName string, filePath string, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
}

// Bucket is the subset of the client used to reconcile the bucket.
type Bucket interface {
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

func Connect(endpoint, accessKey, secretKey string, secure bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  miniocredentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
}

// ObjectKey is runs/<run id>/<file name>.
func ObjectKey(runID uuid.UUID, path string) string {
	return runsPrefix + runID.String() + "/" + filepath.Base(path)
}

// RunID parses the run id out of a key written by ObjectKey.
func RunID(key string) (uuid.UUID, error) {
	rest, ok := strings.CutPrefix(key, runsPrefix)
	if !ok {
		return uuid.Nil, fmt.Errorf("unexpected key: %s", key)
	}
	idS, _, ok := strings.Cut(rest, "/")
	if !ok {
		return uuid.Nil, fmt.Errorf("unexpected key: %s", key)
	}
	return uuid.FromString(idS)
}

// Upload puts the CSV at path under the run's prefix and returns its key.
func Upload(ctx context.Context, mc MinIO, bucket string, runID uuid.UUID, path string) (string, error) {
	key := ObjectKey(runID, path)
	_, err := mc.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	slog.Debug("uploaded", "bucket", bucket, "key", key)
	return key, nil
}

// Reconcile removes objects under runs/ whose run does not exist. It returns
// the removed keys; with dryRun set nothing is removed.
func Reconcile(ctx context.Context, b Bucket, bucket string, exists func(context.Context, uuid.UUID) (bool, error), dryRun bool) ([]string, error) {
	known := make(map[uuid.UUID]bool)
	var removed []string
	var count int
	for obj := range b.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: runsPrefix, Recursive: true}) {
		if obj.Err != nil {
			return removed, obj.Err
		}

		id, err := RunID(obj.Key)
		if err != nil {
			slog.Warn("skipping object", "key", obj.Key, "err", err)
			continue
		}

		ok, seen := known[id]
		if !seen {
			ok, err = exists(ctx, id)
			if err != nil {
				return removed, err
			}
			known[id] = ok
		}

		if !ok {
			slog.Info("deleting", "key", obj.Key, "dry_run", dryRun)
			if !dryRun {
				if err := b.RemoveObject(ctx, bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
					return removed, err
				}
			}
			removed = append(removed, obj.Key)
		}

		count++
		if count%1000 == 0 {
			slog.Info("reconcile progress", "processed", count)
		}
	}
	return removed, nil
}
