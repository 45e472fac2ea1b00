package models

import "time"

// File describes the metadata record for one stored payload.
//
// HashedFileName is the link-identity digest derived from the storage path;
// it is the only token exposed externally and must be unique across
// non-deleted records. ContentHash is the digest of the payload bytes, kept
// as an integrity/dedup signal; duplicate rejection itself is by declared
// name.
type File struct {
	ID             int64
	FileName       string
	HashedFileName string
	ContentHash    string
	ContentType    string
	Size           int32
	StoragePath    string

	// OwnerID links the record to its uploader; nullable because uploads
	// predate account linking in the original schema.
	OwnerID *int64

	IsPublic  bool
	IsDeleted bool

	CreatedAt *time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
}
