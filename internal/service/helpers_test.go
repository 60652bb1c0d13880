package service

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/models"
	"github.com/Kamal-Wagle/recondition/internal/storage"
)

const testBase = "https://cms.test"

var errUpstream = errors.New("upstream unavailable")

func testBlob(folder, name string) storage.Blob {
	id := folder + "/" + name
	return storage.Blob{ID: id, Link: storage.ShareableLink(testBase, "link-secret", id)}
}

func testFile(name string) media.File {
	return media.File{Name: name, MimeType: "image/jpeg", Data: []byte(name)}
}

func fileNamed(name string) interface{} {
	return mock.MatchedBy(func(f media.File) bool { return f.Name == name })
}

// expectUpload stubs one successful upload; delay lets tests finish uploads
// out of input order.
func expectUpload(blobs *mockBlobStore, folder, name string, delay time.Duration) storage.Blob {
	blob := testBlob(folder, name)
	call := blobs.On("Upload", mock.Anything, folder, fileNamed(name)).Return(blob, nil).Once()
	if delay > 0 {
		call.After(delay)
	}
	return blob
}

func newTestAssets() (*mockBlobStore, *fakeOrphans, *Assets) {
	blobs := &mockBlobStore{}
	orphans := newFakeOrphans()
	return blobs, orphans, NewAssets(blobs, orphans, zerolog.Nop())
}

func bikeDetails(name string) models.BikeDetails {
	return models.BikeDetails{
		Name:           name,
		Price:          "250000",
		Year:           "2019",
		Mileage:        "18000",
		Condition:      "Excellent",
		Type:           "Sport",
		Brand:          "Yamaha",
		Engine:         "155cc",
		FuelType:       "Petrol",
		Transmission:   "Manual",
		Color:          "Blue",
		Owners:         "1",
		Insurance:      "Valid",
		Registration:   "Bagmati",
		Description:    "Single owner, serviced.",
		Features:       []string{"ABS"},
		Specifications: map[string]any{"Engine Displacement": "155cc"},
	}
}
