package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// MaxAttachmentSize caps a single attachment at 10MB.
const MaxAttachmentSize = 10 * 1024 * 1024

var allowedAttachmentExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "webp": {},
	"pdf": {}, "doc": {}, "docx": {}, "txt": {}, "rtf": {},
	"zip": {}, "rar": {}, "7z": {},
	"xls": {}, "xlsx": {}, "csv": {},
}

// TicketAttachment is metadata for a file stored outside the record store.
type TicketAttachment struct {
	ID               string
	TicketID         string
	Filename         string
	OriginalFilename string
	FileSize         int64
	MimeType         string
	FilePath         string
	UploadedByID     string
	UploadedAt       time.Time
}

// AllowedAttachmentName reports whether the file extension is on the upload allow-list.
func AllowedAttachmentName(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	_, ok := allowedAttachmentExtensions[ext]
	return ok
}
