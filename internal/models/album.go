package models

import "time"

type Album struct {
	ID          string
	AlbumName   string
	Description string
	Images      ImageSet
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
