package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// recordingStore remembers which paths were written and removed.
type recordingStore struct {
	storage.FileStore
	saved   []string
	removed []string
}

func (r *recordingStore) Save(ctx context.Context, name string, content []byte) error {
	r.saved = append(r.saved, name)
	return r.FileStore.Save(ctx, name, content)
}

func (r *recordingStore) Remove(ctx context.Context, name string) error {
	r.removed = append(r.removed, name)
	return r.FileStore.Remove(ctx, name)
}

func newAttachmentService(f *fixture) (*AttachmentService, *recordingStore, afero.Fs) {
	fs := afero.NewMemMapFs()
	files := &recordingStore{FileStore: storage.NewAferoStore(fs)}
	return NewAttachmentService(AttachmentDependencies{
		UnitOfWork: f.store,
		Files:      files,
		Clock:      f.clock.Now,
	}), files, fs
}

func TestUploadAttachment(t *testing.T) {
	f := newFixture(t)
	attachments, _, fs := newAttachmentService(f)
	ticket := f.newTicket(t, f.alice, nil)

	stored, err := attachments.UploadAttachment(f.ctx, f.as(f.alice), ticket.ID, "../Screenshot.PNG", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "Screenshot.PNG", stored.OriginalFilename)
	assert.Equal(t, "image/png", stored.MimeType)
	assert.Equal(t, int64(len(pngHeader)), stored.FileSize)
	assert.Equal(t, f.alice.ID, stored.UploadedByID)
	assert.Regexp(t, `^20240304_090000_[0-9a-f]{8}\.png$`, stored.Filename)

	content, err := afero.ReadFile(fs, stored.FilePath)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, content)

	logs := f.audit(t, ticket.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.AuditActionUpdated, logs[1].Action)
	assert.Equal(t, "Attached file Screenshot.PNG", logs[1].Details)

	items, err := attachments.ListAttachments(f.ctx, f.as(f.admin), ticket.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, stored.ID, items[0].ID)
}

func TestUploadAttachmentRejections(t *testing.T) {
	f := newFixture(t)
	attachments, files, _ := newAttachmentService(f)
	ticket := f.newTicket(t, f.alice, nil)

	_, err := attachments.UploadAttachment(f.ctx, f.as(f.alice), ticket.ID, "empty.txt", nil)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = attachments.UploadAttachment(f.ctx, f.as(f.alice), ticket.ID, "tool.exe", []byte("MZ"))
	requireCode(t, err, apperrors.CodeValidation)

	_, err = attachments.UploadAttachment(f.ctx, f.as(f.alice), ticket.ID, "huge.zip", make([]byte, domain.MaxAttachmentSize+1))
	requireCode(t, err, apperrors.CodeValidation)

	_, err = attachments.UploadAttachment(f.ctx, f.as(f.bob), ticket.ID, "notes.txt", []byte("hello"))
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = attachments.ListAttachments(f.ctx, f.as(f.bob), ticket.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = attachments.UploadAttachment(f.ctx, f.as(f.alice), "missing", "notes.txt", []byte("hello"))
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = attachments.UploadAttachment(f.ctx, Actor{}, ticket.ID, "notes.txt", []byte("hello"))
	requireCode(t, err, apperrors.CodeUnauthorized)

	assert.Empty(t, files.saved)
}

func TestUploadAttachmentRemovesFileOnAuditFailure(t *testing.T) {
	f := newFixture(t)
	attachments, files, fs := newAttachmentService(f)
	ticket := f.newTicket(t, f.alice, nil)
	f.store.FailNext("audit.create", errors.New("audit down"))

	_, err := attachments.UploadAttachment(f.ctx, f.as(f.alice), ticket.ID, "notes.txt", []byte("hello there"))
	requireCode(t, err, apperrors.CodeInternal)

	require.Len(t, files.saved, 1)
	assert.Equal(t, files.saved, files.removed)
	exists, err := afero.Exists(fs, files.saved[0])
	require.NoError(t, err)
	assert.False(t, exists)
	items, err := attachments.ListAttachments(f.ctx, f.as(f.alice), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, f.audit(t, ticket.ID), 1)
}
