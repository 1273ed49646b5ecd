package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"fileshare/internal/common"
	"fileshare/internal/server/auth"
	sc "fileshare/internal/server/config"
	"fileshare/internal/server/models"
	"fileshare/internal/server/repositories/repomanager"
	"fileshare/internal/server/storage"
)

// FileService handles uploads, listing, and the two-step download flow:
// a capability token is minted for (file, user) and later exchanged —
// after validation and the ownership check — for a presigned URL.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gateway     storage.Gateway
	capability  *auth.CapabilityService
	config      *sc.Config
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, gateway storage.Gateway, capability *auth.CapabilityService, config *sc.Config) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		gateway:     gateway,
		capability:  capability,
		config:      config,
	}
}

// validateUpload checks extension and size before any storage call is made.
func (s *FileService) validateUpload(filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, e := range s.config.AllowedFileExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("%w: file type %q not allowed, allowed types: %s",
			common.ErrValidation, ext, strings.Join(s.config.AllowedFileExtensions, ", "))
	}

	if size <= 0 || size > s.config.MaxUploadSize {
		return "", fmt.Errorf("%w: file size must be between 1 byte and %d bytes",
			common.ErrValidation, s.config.MaxUploadSize)
	}

	return ext, nil
}

// Upload stores the blob and records its metadata. The blob goes to object
// storage first; only then is the row written, so a storage failure leaves
// no dangling record.
func (s *FileService) Upload(ctx context.Context, userID int64, filename, contentType string, size int64, body io.Reader) (*models.File, error) {
	ext, err := s.validateUpload(filename, size)
	if err != nil {
		return nil, err
	}

	key := storage.RandomStorageKey(ext)

	if err := s.gateway.Put(ctx, key, body, contentType); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamStorage, err)
	}

	file := &models.File{
		Filename:   filename,
		StorageKey: key,
		UploadedBy: userID,
		FileType:   ext,
	}

	repo := s.repomanager.Files(s.db)
	created, err := repo.Create(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("error creating file record: %w", err)
	}

	return created, nil
}

// List returns every file record.
func (s *FileService) List(ctx context.Context) ([]*models.File, error) {
	repo := s.repomanager.Files(s.db)

	result, err := repo.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return result, nil
}

// IssueDownloadToken mints a capability token authorizing userID to fetch
// fileID for the configured validity window. The token is self-contained;
// nothing is persisted and the file is not looked up here — existence and
// ownership are checked when the token is presented.
func (s *FileService) IssueDownloadToken(ctx context.Context, fileID, userID int64) (string, error) {
	return s.capability.Issue(fileID, userID, s.config.DownloadTokenValidityDuration)
}

// Download exchanges a capability token for a presigned URL. The token must
// validate, the file must exist, and the ownership check must hold: the
// token's user is the caller and the token's file is the looked-up record.
// A valid, unexpired token minted for a different user never grants access.
func (s *FileService) Download(ctx context.Context, tokenText string, callerID int64) (string, error) {
	payload, err := s.capability.Validate(tokenText)
	if err != nil {
		return "", err
	}

	repo := s.repomanager.Files(s.db)
	file, err := repo.GetByID(ctx, payload.FileID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		return "", common.ErrInternal
	}

	if payload.UserID != callerID || file.ID != payload.FileID {
		return "", common.ErrNotAuthorized
	}

	url, err := s.gateway.PresignGetURL(ctx, file.StorageKey, s.config.PresignedURLValidityDuration)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUpstreamStorage, err)
	}
	return url, nil
}
