package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Kayvinh/messagely/internal/common"
	"github.com/Kayvinh/messagely/internal/dbx"
	"github.com/Kayvinh/messagely/internal/server/auth"
	"github.com/Kayvinh/messagely/internal/server/config"
	"github.com/Kayvinh/messagely/internal/server/models"
	messagesrepo "github.com/Kayvinh/messagely/internal/server/repositories/messages"
	"github.com/Kayvinh/messagely/internal/server/repositories/repomanager"
	usersrepo "github.com/Kayvinh/messagely/internal/server/repositories/users"
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
		BcryptCost:            4, // min cost keeps the tests fast
	}
	return NewUserService(db, rm, cfg)
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error
	created   *models.User // captures the record passed to Create

	getOut *models.User
	getErr error

	updateErr error

	existsOut bool
	existsErr error

	listOut []models.User
	listErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.created = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) UpdateLastLogin(ctx context.Context, username string) error {
	return f.updateErr
}

func (f *fakeUsersRepo) Exists(ctx context.Context, username string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existsOut, nil
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeMessagesRepo struct {
	createErr error
	created   *models.Message

	getOut *models.Message
	getErr error

	markReadOut time.Time
	markReadErr error

	listFromOut []models.MessageWithProfile
	listToOut   []models.MessageWithProfile
	listErr     error
}

func (f *fakeMessagesRepo) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	f.created = msg
	if f.createErr != nil {
		return nil, f.createErr
	}
	return msg, nil
}

func (f *fakeMessagesRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeMessagesRepo) MarkRead(ctx context.Context, id string) (time.Time, error) {
	if f.markReadErr != nil {
		return time.Time{}, f.markReadErr
	}
	return f.markReadOut, nil
}

func (f *fakeMessagesRepo) ListFrom(ctx context.Context, username string) ([]models.MessageWithProfile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listFromOut, nil
}

func (f *fakeMessagesRepo) ListTo(ctx context.Context, username string) ([]models.MessageWithProfile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listToOut, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	m *fakeMessagesRepo
}

func (rm *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (rm *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return rm.u }
func (rm *fakeRepoManager) Messages(db dbx.DBTX) messagesrepo.Repository { return rm.m }

// --- UserService ---

func TestRegister_HashesPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repo := &fakeUsersRepo{}
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	u, err := s.Register(context.Background(), RegisterParams{
		Username:  "alice",
		Password:  "s3cret",
		FirstName: "Alice",
		LastName:  "Smith",
		Phone:     "+15551111111",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.Username != "alice" || u.FirstName != "Alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if repo.created.PasswordHash == "s3cret" {
		t.Fatalf("password stored in cleartext")
	}
	if err := auth.CheckPassword("s3cret", repo.created.PasswordHash); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{}})

	for _, p := range []RegisterParams{
		{Username: "", Password: "x"},
		{Username: "alice", Password: ""},
	} {
		if _, err := s.Register(context.Background(), p); !errors.Is(err, common.ErrorConflict) {
			t.Fatalf("params %+v: want ErrorConflict, got %v", p, err)
		}
	}
}

func TestRegister_Duplicate(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrorConflict}})

	_, err := s.Register(context.Background(), RegisterParams{Username: "alice", Password: "x"})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want ErrorConflict, got %v", err)
	}
}

func TestRegister_RepoErr(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{createErr: errBoom{}}})

	_, err := s.Register(context.Background(), RegisterParams{Username: "alice", Password: "x"})
	if err == nil || !regexp.MustCompile(`error creating user: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped create error, got %v", err)
	}
}

func TestAuthenticate_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := auth.HashPassword("correct", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	stored := &models.User{Username: "alice", PasswordHash: hash}

	sOK := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: stored}})
	u, err := sOK.Authenticate(context.Background(), "alice", "correct")
	if err != nil || u.Username != "alice" {
		t.Fatalf("Authenticate ok: got (%v, %v)", u, err)
	}

	_, errWrongPw := sOK.Authenticate(context.Background(), "alice", "wrong")
	if !errors.Is(errWrongPw, common.ErrorUnauthorized) {
		t.Fatalf("wrong password: want ErrorUnauthorized, got %v", errWrongPw)
	}

	sNF := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}})
	_, errUnknown := sNF.Authenticate(context.Background(), "ghost", "correct")
	if !errors.Is(errUnknown, common.ErrorUnauthorized) {
		t.Fatalf("unknown user: want ErrorUnauthorized, got %v", errUnknown)
	}

	// unknown user and wrong password must be indistinguishable to the caller
	if !errors.Is(errWrongPw, errUnknown) && errWrongPw.Error() != errUnknown.Error() {
		t.Fatalf("distinguishable failures: %v vs %v", errWrongPw, errUnknown)
	}

	sErr := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}})
	if _, err := sErr.Authenticate(context.Background(), "alice", "correct"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("repo error: want ErrorInternal, got %v", err)
	}
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, _ := auth.HashPassword("pw", 4)
	rm := &fakeRepoManager{u: &fakeUsersRepo{getOut: &models.User{Username: "alice", PasswordHash: hash}}}
	s := newUserService(t, db, rm)

	token, err := s.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	username, err := auth.GetUsernameFromToken(token, []byte("k"))
	if err != nil || username != "alice" {
		t.Fatalf("token does not verify: (%q, %v)", username, err)
	}
}

func TestLogin_RecordLoginFailures(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, _ := auth.HashPassword("pw", 4)
	stored := &models.User{Username: "alice", PasswordHash: hash}

	// user deleted between verification and the timestamp write: token is
	// still issued
	sNF := newUserService(t, db, &fakeRepoManager{
		u: &fakeUsersRepo{getOut: stored, updateErr: common.ErrorNotFound},
	})
	if _, err := sNF.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("vanished user should not block issuance: %v", err)
	}

	sErr := newUserService(t, db, &fakeRepoManager{
		u: &fakeUsersRepo{getOut: stored, updateErr: errBoom{}},
	})
	if _, err := sErr.Login(context.Background(), "alice", "pw"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("store error: want ErrorInternal, got %v", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}})

	if _, err := s.Login(context.Background(), "ghost", "pw"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
}

func TestGet_StripsPasswordHash(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{Username: "alice", PasswordHash: "h"}},
	})

	u, err := s.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if u.PasswordHash != "" {
		t.Fatalf("password hash leaked: %+v", u)
	}
}

func TestGet_NotFoundAndInternal(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	sNF := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}})
	if _, err := sNF.Get(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}

	sErr := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}})
	if _, err := sErr.Get(context.Background(), "alice"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("want ErrorInternal, got %v", err)
	}
}

func TestList(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{
		u: &fakeUsersRepo{listOut: []models.User{{Username: "alice"}, {Username: "bob"}}},
	})

	list, err := s.List(context.Background())
	if err != nil || len(list) != 2 {
		t.Fatalf("List: got (%v, %v)", list, err)
	}
}

func TestMessagesFromTo(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{existsOut: true},
		m: &fakeMessagesRepo{
			listFromOut: []models.MessageWithProfile{{Message: models.Message{ID: "m1"}}},
			listToOut:   []models.MessageWithProfile{{Message: models.Message{ID: "m2"}}, {Message: models.Message{ID: "m3"}}},
		},
	}
	s := newUserService(t, db, rm)

	from, err := s.MessagesFrom(context.Background(), "alice")
	if err != nil || len(from) != 1 || from[0].ID != "m1" {
		t.Fatalf("MessagesFrom: got (%v, %v)", from, err)
	}

	to, err := s.MessagesTo(context.Background(), "alice")
	if err != nil || len(to) != 2 {
		t.Fatalf("MessagesTo: got (%v, %v)", to, err)
	}
}

func TestMessagesFromTo_UnknownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{existsOut: false}, m: &fakeMessagesRepo{}})

	if _, err := s.MessagesFrom(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("MessagesFrom: want ErrorNotFound, got %v", err)
	}
	if _, err := s.MessagesTo(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("MessagesTo: want ErrorNotFound, got %v", err)
	}
}
