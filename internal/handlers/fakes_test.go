package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Kamal-Wagle/recondition/internal/config"
	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/middleware"
	"github.com/Kamal-Wagle/recondition/internal/models"
	"github.com/Kamal-Wagle/recondition/internal/repository"
	"github.com/Kamal-Wagle/recondition/internal/security"
	"github.com/Kamal-Wagle/recondition/internal/service"
	"github.com/Kamal-Wagle/recondition/internal/storage"
)

const (
	testBase       = "https://cms.test"
	testLinkSecret = "link-secret"
	adminToken     = "Bearer admin-token"
	editorToken    = "Bearer editor-token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var errStorageDown = errors.New("storage unavailable")

// fakeBlobs keeps blobs in memory. Blob ids are <folder>/<file name>.
type fakeBlobs struct {
	mu       sync.Mutex
	objects  map[string]media.File
	uploads  []string
	deletes  []string
	failName string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string]media.File{}}
}

func (f *fakeBlobs) Upload(_ context.Context, folder string, file media.File) (storage.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file.Name == f.failName {
		return storage.Blob{}, errStorageDown
	}
	id := folder + "/" + file.Name
	f.objects[id] = file
	f.uploads = append(f.uploads, id)
	return storage.Blob{ID: id, Link: storage.ShareableLink(testBase, testLinkSecret, id)}, nil
}

func (f *fakeBlobs) Delete(_ context.Context, blobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, blobID)
	if _, ok := f.objects[blobID]; !ok {
		return storage.ErrBlobNotFound
	}
	delete(f.objects, blobID)
	return nil
}

func (f *fakeBlobs) Open(_ context.Context, blobID string) (io.ReadCloser, storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.objects[blobID]
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(file.Data)), storage.ObjectInfo{
		Key:         blobID,
		ContentType: file.MimeType,
		Size:        file.Size(),
	}, nil
}

func (f *fakeBlobs) VerifyLink(blobID, sig string) bool {
	return security.VerifyResource(testLinkSecret, sig, "blob", blobID)
}

func (f *fakeBlobs) put(id string, file media.File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id] = file
}

func (f *fakeBlobs) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[id]
	return ok
}

func (f *fakeBlobs) calls() (uploads, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads), len(f.deletes)
}

type nopOrphans struct{}

func (nopOrphans) Record(context.Context, string, ...string) {}

type memBikes struct {
	mu    sync.Mutex
	clock time.Time
	items map[string]models.Bike
}

func newMemBikes() *memBikes {
	return &memBikes{clock: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), items: map[string]models.Bike{}}
}

func (m *memBikes) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memBikes) Create(_ context.Context, bike models.Bike) (models.Bike, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bike.CreatedAt = m.tick()
	bike.UpdatedAt = bike.CreatedAt
	m.items[bike.ID] = bike
	return bike, nil
}

func (m *memBikes) List(context.Context) ([]models.Bike, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Bike, 0, len(m.items))
	for _, b := range m.items {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memBikes) GetByID(_ context.Context, id string) (models.Bike, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return models.Bike{}, repository.ErrNotFound
	}
	return b, nil
}

func (m *memBikes) Update(_ context.Context, bike models.Bike) (models.Bike, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[bike.ID]; !ok {
		return models.Bike{}, repository.ErrNotFound
	}
	bike.UpdatedAt = m.tick()
	m.items[bike.ID] = bike
	return bike, nil
}

func (m *memBikes) Delete(_ context.Context, id string) (models.Bike, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return models.Bike{}, repository.ErrNotFound
	}
	delete(m.items, id)
	return b, nil
}

func (m *memBikes) put(b models.Bike) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[b.ID] = b
}

func (m *memBikes) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memAlbums struct {
	mu    sync.Mutex
	items map[string]models.Album
}

func (m *memAlbums) Create(_ context.Context, album models.Album) (models.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	album.CreatedAt = time.Now()
	album.UpdatedAt = album.CreatedAt
	m.items[album.ID] = album
	return album, nil
}

func (m *memAlbums) List(context.Context) ([]models.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Album, 0, len(m.items))
	for _, a := range m.items {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAlbums) GetByID(_ context.Context, id string) (models.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return models.Album{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memAlbums) Delete(_ context.Context, id string) (models.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return models.Album{}, repository.ErrNotFound
	}
	delete(m.items, id)
	return a, nil
}

type memGallery struct {
	mu    sync.Mutex
	items map[string]models.GalleryImage
}

func (m *memGallery) Create(_ context.Context, img models.GalleryImage) (models.GalleryImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img.CreatedAt = time.Now()
	m.items[img.ID] = img
	return img, nil
}

func (m *memGallery) List(context.Context) ([]models.GalleryImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.GalleryImage, 0, len(m.items))
	for _, img := range m.items {
		out = append(out, img)
	}
	return out, nil
}

func (m *memGallery) GetByID(_ context.Context, id string) (models.GalleryImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.items[id]
	if !ok {
		return models.GalleryImage{}, repository.ErrNotFound
	}
	return img, nil
}

func (m *memGallery) Delete(_ context.Context, id string) (models.GalleryImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.items[id]
	if !ok {
		return models.GalleryImage{}, repository.ErrNotFound
	}
	delete(m.items, id)
	return img, nil
}

// fakeAuthenticate accepts two fixed bearer tokens, one per role.
func fakeAuthenticate(c *gin.Context) {
	var user models.User
	switch c.GetHeader("Authorization") {
	case adminToken:
		user = models.User{ID: "u-admin", Role: models.UserRoleAdmin, Status: models.UserStatusActive}
	case editorToken:
		user = models.User{ID: "u-editor", Role: models.UserRoleEditor, Status: models.UserStatusActive}
	default:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
		return
	}
	middleware.SetCurrentUser(c, user)
	c.Next()
}

type testEnv struct {
	router  *gin.Engine
	blobs   *fakeBlobs
	bikes   *memBikes
	albums  *memAlbums
	gallery *memGallery
}

func newTestEnv(t *testing.T, checks ...HealthCheck) *testEnv {
	t.Helper()

	env := &testEnv{
		blobs:   newFakeBlobs(),
		bikes:   newMemBikes(),
		albums:  &memAlbums{items: map[string]models.Album{}},
		gallery: &memGallery{items: map[string]models.GalleryImage{}},
	}

	log := zerolog.Nop()
	assets := service.NewAssets(env.blobs, nopOrphans{}, log)
	cfg := &config.AppConfig{
		Environment: "test",
		HTTP:        config.HTTPConfig{MaxUploadBytes: 1 << 20},
	}

	h := NewHandlerSet(log, cfg, Dependencies{
		Bikes:        service.NewBikeService(env.bikes, assets, "bikes", log),
		Albums:       service.NewAlbumService(env.albums, assets, "albums", log),
		Gallery:      service.NewGalleryService(env.gallery, assets, "gallery", log),
		Files:        env.blobs,
		Checks:       checks,
		Authenticate: fakeAuthenticate,
	})

	env.router = gin.New()
	h.Register(env.router)
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type formFile struct {
	field   string
	name    string
	content string
}

// multipartRequest builds a multipart body. Fields keep their given order.
func multipartRequest(t *testing.T, method, target string, fields [][2]string, files ...formFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		require.NoError(t, w.WriteField(f[0], f[1]))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", adminToken)
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", adminToken)
	return req
}
