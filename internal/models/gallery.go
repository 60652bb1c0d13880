package models

import "time"

type GalleryImage struct {
	ID        string
	Category  string
	Title     string
	Image     ImageRef
	CreatedAt time.Time
}
