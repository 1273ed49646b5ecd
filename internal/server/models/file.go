package models

import "time"

// File describes metadata for an uploaded blob. The content itself lives in
// object storage under StorageKey; records are never mutated after creation.
type File struct {
	ID int64
	// Filename is the display name supplied at upload time.
	Filename string
	// StorageKey is the object-storage key of the blob.
	StorageKey string
	// UploadedBy is the id of the uploader-role user that created the record.
	UploadedBy int64
	// FileType is the lowercased extension, dot included (".xlsx").
	FileType  string
	CreatedAt time.Time
}
