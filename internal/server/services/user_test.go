package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkruglov/fileshare/internal/common"
	"github.com/dkruglov/fileshare/internal/dbx"
	"github.com/dkruglov/fileshare/internal/server/auth"
	"github.com/dkruglov/fileshare/internal/server/config"
	"github.com/dkruglov/fileshare/internal/server/models"
	filesrepo "github.com/dkruglov/fileshare/internal/server/repositories/files"
	"github.com/dkruglov/fileshare/internal/server/repositories/repomanager"
	usersrepo "github.com/dkruglov/fileshare/internal/server/repositories/users"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:             "k",
		TokenValidityDuration: time.Hour,
	}
	s, err := NewUserService(db, rm, cfg)
	if err != nil {
		t.Fatalf("NewUserService error: %v", err)
	}
	return s
}

type fakeUsersRepo struct {
	createdIn *models.User
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error

	countOut int64
	countErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.createdIn = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByName(ctx context.Context, name string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) CountByEmail(ctx context.Context, email string) (int64, error) {
	return f.countOut, f.countErr
}

type fakeFilesRepo struct {
	created []*models.File

	createErr error

	existsOut map[string]bool
	existsErr error

	findOut []*models.File
	findErr error
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, file)
	out := *file
	out.ID = int64(len(f.created))
	return &out, nil
}

func (f *fakeFilesRepo) FindByLinkDigest(ctx context.Context, digest string) ([]*models.File, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeFilesRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existsOut[name], nil
}

func (f *fakeFilesRepo) SoftDelete(ctx context.Context, id int64) error { return nil }

type fakeRepoManager struct {
	u *fakeUsersRepo
	f *fakeFilesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository       { return m.f }

// --- tests ---

func TestNewUserService_EmptySecret(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	_, err := NewUserService(db, &fakeRepoManager{}, &config.Config{})
	if !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}

func TestRegister_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeUsersRepo{}
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	u, err := s.Register(context.Background(), "alice", "s3cret", "alice@example.com")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.Name != "alice" || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if repo.createdIn.Password == "s3cret" {
		t.Fatalf("password stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(repo.createdIn.Password), []byte("s3cret")) != nil {
		t.Fatalf("stored hash does not verify against original password")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{countOut: 1}})

	_, err := s.Register(context.Background(), "alice", "s", "alice@example.com")
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestRegister_NameTakenAtInsert(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrAlreadyExists}})

	_, err := s.Register(context.Background(), "alice", "s", "alice@example.com")
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestRegister_CreateError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{createErr: errBoom{}}})

	_, err := s.Register(context.Background(), "bob", "s", "bob@example.com")
	if err == nil || !regexp.MustCompile(`error creating user: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped create error, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}

	repo := &fakeUsersRepo{getOut: &models.User{ID: 7, Name: "alice", Email: "alice@example.com", Password: string(hash)}}
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	token, err := s.Login(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	claims, err := auth.ParseToken(token, []byte("k"))
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	repo := &fakeUsersRepo{getOut: &models.User{Name: "alice", Password: string(hash)}}
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	_, err := s.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}})

	_, err := s.Login(context.Background(), "nobody", "s")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
}

func TestLogin_RepoError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}})

	_, err := s.Login(context.Background(), "alice", "s")
	if !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("want ErrorInternal, got %v", err)
	}
}
