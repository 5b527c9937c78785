package models

import (
	"time"

	"github.com/google/uuid"
)

type ImageAsset struct {
	ID               int64     `db:"id"`
	UserID           uuid.UUID `db:"user_id"`
	ObjectKey        string    `db:"object_key"`
	OriginalFilename *string   `db:"original_filename"`
	ContentType      string    `db:"content_type"`
	SizeBytes        *int64    `db:"size_bytes"`
	CreatedAt        time.Time `db:"created_at"`
}
