package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Kamal-Wagle/recondition/internal/config"
	"github.com/Kamal-Wagle/recondition/internal/ids"
	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/security"
)

var ErrBlobNotFound = errors.New("blob not found")

// Blob is an object that was written to the bucket.
type Blob struct {
	ID   string
	Link string
}

// ObjectInfo describes a stored object when it is read back.
type ObjectInfo struct {
	Key          string
	ContentType  string
	Size         int64
	LastModified time.Time
}

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
	now    func() time.Time
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

// Upload writes the file under folder and returns its blob id together with
// a signed shareable link.
func (s *ObjectStore) Upload(ctx context.Context, folder string, file media.File) (Blob, error) {
	key := ObjectKey(folder, s.now(), ids.New(), file.Ext())

	opts := minio.PutObjectOptions{
		ContentType:  file.MimeType,
		UserMetadata: map[string]string{"original-name": file.Name},
	}
	if _, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(file.Data), file.Size(), opts); err != nil {
		return Blob{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return Blob{ID: key, Link: s.ShareableLink(key)}, nil
}

// Delete removes a blob. It returns ErrBlobNotFound when the object does not
// exist, since the bucket itself treats removal of a missing key as success.
func (s *ObjectStore) Delete(ctx context.Context, blobID string) error {
	if _, err := s.client.StatObject(ctx, s.cfg.Bucket, blobID, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("stat object %s: %w", blobID, err)
	}
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, blobID, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("remove object %s: %w", blobID, err)
	}
	return nil
}

// Open streams a blob. The caller closes the returned reader.
func (s *ObjectStore) Open(ctx context.Context, blobID string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, blobID, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get object %s: %w", blobID, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isNotFound(err) {
			return nil, ObjectInfo{}, ErrBlobNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("stat object %s: %w", blobID, err)
	}
	return obj, toInfo(stat), nil
}

// ListKeys enumerates every object stored under folder.
func (s *ObjectStore) ListKeys(ctx context.Context, folder string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    strings.Trim(folder, "/") + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", folder, obj.Err)
		}
		out = append(out, toInfo(obj))
	}
	return out, nil
}

func (s *ObjectStore) ShareableLink(blobID string) string {
	return ShareableLink(s.cfg.PublicBase, s.cfg.LinkSecret, blobID)
}

// VerifyLink checks the signature carried by a shareable link.
func (s *ObjectStore) VerifyLink(blobID, sig string) bool {
	return security.VerifyResource(s.cfg.LinkSecret, sig, "blob", blobID)
}

// Ping reports whether the bucket is reachable and exists.
func (s *ObjectStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.cfg.Bucket)
	}
	return nil
}

// ObjectKey lays blobs out as <folder>/<yyyy>/<mm>/<dd>/<id><ext>.
func ObjectKey(folder string, at time.Time, id, ext string) string {
	at = at.UTC()
	return path.Join(strings.Trim(folder, "/"), at.Format("2006"), at.Format("01"), at.Format("02"), id+ext)
}

// ShareableLink builds the signed public "view" link for a blob.
func ShareableLink(publicBase, secret, blobID string) string {
	q := url.Values{}
	q.Set("id", blobID)
	q.Set("sig", string(security.SignResource(secret, "blob", blobID)))
	return strings.TrimRight(publicBase, "/") + "/files/view?" + q.Encode()
}

// PreviewLink rewrites a shareable "view" link into its inline "preview"
// form. Links of any other shape are returned unchanged.
func PreviewLink(link string) string {
	return strings.Replace(link, "/view?", "/preview?", 1)
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func toInfo(obj minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:          obj.Key,
		ContentType:  obj.ContentType,
		Size:         obj.Size,
		LastModified: obj.LastModified,
	}
}
