package services

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"fileshare/internal/common"
	"fileshare/internal/dbx"
	"fileshare/internal/server/config"
	"fileshare/internal/server/models"
	filesrepo "fileshare/internal/server/repositories/files"
	usersrepo "fileshare/internal/server/repositories/users"

	"github.com/DATA-DOG/go-sqlmock"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testServiceConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.DownloadTokenSecret = "test-download-secret"
	return cfg
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmail    map[string]*models.User
	byID       map[int64]*models.User
	byToken    map[string]*models.User
	lookupErr  error
	verifiedID int64
	verifyErr  error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = 1
	u.CreatedAt = time.Now()
	return u, nil
}

func (f *fakeUsersRepo) get(m map[string]*models.User, key string) (*models.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if u, ok := m[key]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.get(f.byEmail, email)
}

func (f *fakeUsersRepo) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return f.get(f.byToken, token)
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) MarkVerified(ctx context.Context, id int64) error {
	if f.verifyErr != nil {
		return f.verifyErr
	}
	f.verifiedID = id
	return nil
}

type fakeFilesRepo struct {
	createOut *models.File
	createErr error

	byID    map[int64]*models.File
	all     []*models.File
	listErr error
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	file.ID = 42
	file.CreatedAt = time.Now()
	return file, nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id int64) (*models.File, error) {
	if file, ok := f.byID[id]; ok {
		return file, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeFilesRepo) SelectAll(ctx context.Context) ([]*models.File, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.all, nil
}

type fakeRepoManager struct {
	users *fakeUsersRepo
	files *fakeFilesRepo
}

func (f *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (f *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return f.users }

func (f *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository { return f.files }

type fakeMailer struct {
	sent    []string
	sendErr error
}

func (f *fakeMailer) SendVerification(ctx context.Context, recipient, token string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, recipient+":"+token)
	return nil
}

type fakeGateway struct {
	putKeys    []string
	putErr     error
	presignURL string
	presignErr error
}

func (f *fakeGateway) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putKeys = append(f.putKeys, key)
	return nil
}

func (f *fakeGateway) PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return f.presignURL, nil
}
