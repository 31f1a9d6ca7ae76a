package data

import "time"

// VirtualFileStat is the backend metadata attached to a VirtualFile.
// Adapters fill it while listing; producers usually leave it empty.
type VirtualFileStat struct {
	// Key relative to the adapter root, slash separated
	Key string `json:"key"`

	// Unix-style mode and permissions
	Mode VirtualFileMode `json:"mode"`

	// Size in bytes (0 for directories)
	Size int64 `json:"size"`

	ModifyTime time.Time `json:"modify_time"`
	CreateTime time.Time `json:"create_time"`

	// Content MIME type as reported by the backend
	ContentType string `json:"content_type,omitempty"`

	// Raw entity tag reported by object storage
	ETag string `json:"etag,omitempty"`
}

// NewFileStat returns the stat of a regular file with the given size.
func NewFileStat(key string, size int64, modified time.Time) *VirtualFileStat {
	return &VirtualFileStat{
		Key:        key,
		Mode:       0644,
		Size:       size,
		ModifyTime: modified,
		CreateTime: modified,
	}
}

// NewDirectoryStat returns the stat of a directory placeholder.
func NewDirectoryStat(key string, modified time.Time) *VirtualFileStat {
	return &VirtualFileStat{
		Key:        key,
		Mode:       ModeDir | 0755,
		ModifyTime: modified,
		CreateTime: modified,
	}
}
