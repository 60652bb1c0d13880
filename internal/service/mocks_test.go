package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/models"
	"github.com/Kamal-Wagle/recondition/internal/storage"
)

type mockBlobStore struct {
	mock.Mock
}

var _ BlobStore = (*mockBlobStore)(nil)

func (m *mockBlobStore) Upload(ctx context.Context, folder string, file media.File) (storage.Blob, error) {
	args := m.Called(ctx, folder, file)
	return args.Get(0).(storage.Blob), args.Error(1)
}

func (m *mockBlobStore) Delete(ctx context.Context, blobID string) error {
	args := m.Called(ctx, blobID)
	return args.Error(0)
}

// fakeOrphans records journal entries per reason.
type fakeOrphans struct {
	mu      sync.Mutex
	entries map[string][]string
}

var _ OrphanRecorder = (*fakeOrphans)(nil)

func newFakeOrphans() *fakeOrphans {
	return &fakeOrphans{entries: map[string][]string{}}
}

func (f *fakeOrphans) Record(_ context.Context, reason string, blobIDs ...string) {
	if len(blobIDs) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[reason] = append(f.entries[reason], blobIDs...)
}

func (f *fakeOrphans) get(reason string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[reason]
}

type mockBikeStore struct {
	mock.Mock
}

var _ BikeStore = (*mockBikeStore)(nil)

// echoBike can be passed to Return to hand the saved record back unchanged.
func echoBike(b models.Bike) models.Bike { return b }

func (m *mockBikeStore) Create(ctx context.Context, bike models.Bike) (models.Bike, error) {
	args := m.Called(ctx, bike)
	if fn, ok := args.Get(0).(func(models.Bike) models.Bike); ok {
		return fn(bike), args.Error(1)
	}
	return args.Get(0).(models.Bike), args.Error(1)
}

func (m *mockBikeStore) List(ctx context.Context) ([]models.Bike, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Bike), args.Error(1)
}

func (m *mockBikeStore) GetByID(ctx context.Context, id string) (models.Bike, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Bike), args.Error(1)
}

func (m *mockBikeStore) Update(ctx context.Context, bike models.Bike) (models.Bike, error) {
	args := m.Called(ctx, bike)
	if fn, ok := args.Get(0).(func(models.Bike) models.Bike); ok {
		return fn(bike), args.Error(1)
	}
	return args.Get(0).(models.Bike), args.Error(1)
}

func (m *mockBikeStore) Delete(ctx context.Context, id string) (models.Bike, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Bike), args.Error(1)
}

type mockAlbumStore struct {
	mock.Mock
}

var _ AlbumStore = (*mockAlbumStore)(nil)

func (m *mockAlbumStore) Create(ctx context.Context, album models.Album) (models.Album, error) {
	args := m.Called(ctx, album)
	return args.Get(0).(models.Album), args.Error(1)
}

func (m *mockAlbumStore) List(ctx context.Context) ([]models.Album, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Album), args.Error(1)
}

func (m *mockAlbumStore) GetByID(ctx context.Context, id string) (models.Album, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Album), args.Error(1)
}

func (m *mockAlbumStore) Delete(ctx context.Context, id string) (models.Album, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Album), args.Error(1)
}

type mockGalleryStore struct {
	mock.Mock
}

var _ GalleryStore = (*mockGalleryStore)(nil)

func (m *mockGalleryStore) Create(ctx context.Context, img models.GalleryImage) (models.GalleryImage, error) {
	args := m.Called(ctx, img)
	return args.Get(0).(models.GalleryImage), args.Error(1)
}

func (m *mockGalleryStore) List(ctx context.Context) ([]models.GalleryImage, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.GalleryImage), args.Error(1)
}

func (m *mockGalleryStore) GetByID(ctx context.Context, id string) (models.GalleryImage, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.GalleryImage), args.Error(1)
}

func (m *mockGalleryStore) Delete(ctx context.Context, id string) (models.GalleryImage, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.GalleryImage), args.Error(1)
}

type mockUserStore struct {
	mock.Mock
}

var _ UserStore = (*mockUserStore)(nil)

func (m *mockUserStore) Upsert(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) RecordLogin(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockSessionStore struct {
	mock.Mock
}

var _ SessionStore = (*mockSessionStore)(nil)

func (m *mockSessionStore) Create(ctx context.Context, session models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionStore) DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error {
	return m.Called(ctx, userID, keepLatest).Error(0)
}

func (m *mockSessionStore) FindByRefreshHash(ctx context.Context, userID string, refreshHash []byte) (models.Session, error) {
	args := m.Called(ctx, userID, refreshHash)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *mockSessionStore) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
