package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// txStubDriver is a database/sql driver whose transactions always succeed
// without touching any backend. The fake stores ignore the *sql.Tx handle,
// so this is enough to exercise the service's transactional paths.
type txStubDriver struct{}

func (txStubDriver) Open(name string) (driver.Conn, error) { return txStubConn{}, nil }

type txStubConn struct{}

func (txStubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("txstub: statements not supported")
}
func (txStubConn) Close() error              { return nil }
func (txStubConn) Begin() (driver.Tx, error) { return txStubTx{}, nil }

type txStubTx struct{}

func (txStubTx) Commit() error   { return nil }
func (txStubTx) Rollback() error { return nil }

var registerTxStub sync.Once

// newStubDB returns a *sql.DB whose BeginTx/Commit/Rollback succeed.
func newStubDB() *sql.DB {
	registerTxStub.Do(func() {
		sql.Register("txstub", txStubDriver{})
	})
	db, err := sql.Open("txstub", "")
	if err != nil {
		panic(err)
	}
	return db
}

// fakeUserStore is an in-memory store.UserStore.
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*domain.User
	tokens map[uuid.UUID][]string

	// Optional error overrides
	createErr error
	updateErr error
	deleteErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[uuid.UUID]*domain.User),
		tokens: make(map[uuid.UUID][]string),
	}
}

var _ store.UserStore = (*fakeUserStore)(nil)

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	// Mirror the real store's hashing contract without the bcrypt cost.
	stored := *user
	if stored.Password != "" {
		stored.HashedPassword = "hashed:" + stored.Password
		stored.Password = ""
	}
	f.users[stored.ID] = &stored
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	normalized := domain.NormalizeEmail(email)
	for _, user := range f.users {
		if user.Email == normalized {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) Update(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	existing, ok := f.users[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	for id, other := range f.users {
		if id != user.ID && other.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	stored := *user
	if stored.Password != "" {
		stored.HashedPassword = "hashed:" + stored.Password
		stored.Password = ""
	} else {
		stored.HashedPassword = existing.HashedPassword
	}
	f.users[stored.ID] = &stored
	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) AddToken(ctx context.Context, userID uuid.UUID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[userID] = append(f.tokens[userID], token)
	return nil
}

func (f *fakeUserStore) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens := f.tokens[userID]
	for i, t := range tokens {
		if t == token {
			f.tokens[userID] = append(tokens[:i], tokens[i+1:]...)
			return nil
		}
	}
	return store.ErrTokenNotFound
}

func (f *fakeUserStore) RemoveAllTokens(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, userID)
	return nil
}

func (f *fakeUserStore) HasToken(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens[userID] {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatar []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	user.Avatar = avatar
	return nil
}

func (f *fakeUserStore) GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	if len(user.Avatar) == 0 {
		return nil, store.ErrAvatarNotFound
	}
	return user.Avatar, nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

func (f *fakeUserStore) tokenCount(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens[userID])
}

// fakeTaskStore is an in-memory store.TaskStore.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

var _ store.TaskStore = (*fakeTaskStore)(nil)

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *task
	f.tasks[copied.ID] = &copied
	return nil
}

func (f *fakeTaskStore) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) FindByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	opts store.TaskListOptions,
) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*domain.Task{}
	for _, task := range f.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		if opts.Status != nil && task.Status != *opts.Status {
			continue
		}
		copied := *task
		result = append(result, &copied)
	}
	return result, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return store.ErrTaskNotFound
	}
	copied := *task
	f.tasks[copied.ID] = &copied
	return nil
}

func (f *fakeTaskStore) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return task, nil
}

func (f *fakeTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, task := range f.tasks {
		if task.OwnerID == ownerID {
			delete(f.tasks, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

func (f *fakeTaskStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// stubJWTService issues unique predictable tokens without real signing.
type stubJWTService struct {
	generateErr error
}

var _ auth.JWTService = (*stubJWTService)(nil)

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.generateErr != nil {
		return "", s.generateErr
	}
	return userID.String() + "-token-" + uuid.New().String(), nil
}

func (s *stubJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}

// stubVerifier accepts any password whose fake hash matches.
type stubVerifier struct{}

func (stubVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword == "hashed:"+password {
		return nil
	}
	return errors.New("password mismatch")
}
