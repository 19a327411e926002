package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/service"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// fakeUserService implements service.UserService with overridable
// functions, returning zero values when a function is not set.
type fakeUserService struct {
	registerFn   func(ctx context.Context, name, email, password string, age int) (*domain.User, string, error)
	loginFn      func(ctx context.Context, email, password string) (*domain.User, string, error)
	logoutFn     func(ctx context.Context, userID uuid.UUID, token string) error
	logoutAllFn  func(ctx context.Context, userID uuid.UUID) error
	getUserFn    func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	updateUserFn func(ctx context.Context, userID uuid.UUID, changes service.UserChanges) (*domain.User, error)
	deleteUserFn func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

var _ service.UserService = (*fakeUserService)(nil)

var errFakeNotConfigured = errors.New("fake not configured")

func (f *fakeUserService) Register(
	ctx context.Context,
	name, email, password string,
	age int,
) (*domain.User, string, error) {
	if f.registerFn == nil {
		return nil, "", errFakeNotConfigured
	}
	return f.registerFn(ctx, name, email, password, age)
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if f.loginFn == nil {
		return nil, "", errFakeNotConfigured
	}
	return f.loginFn(ctx, email, password)
}

func (f *fakeUserService) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	if f.logoutFn == nil {
		return errFakeNotConfigured
	}
	return f.logoutFn(ctx, userID, token)
}

func (f *fakeUserService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if f.logoutAllFn == nil {
		return errFakeNotConfigured
	}
	return f.logoutAllFn(ctx, userID)
}

func (f *fakeUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if f.getUserFn == nil {
		return nil, errFakeNotConfigured
	}
	return f.getUserFn(ctx, userID)
}

func (f *fakeUserService) UpdateUser(
	ctx context.Context,
	userID uuid.UUID,
	changes service.UserChanges,
) (*domain.User, error) {
	if f.updateUserFn == nil {
		return nil, errFakeNotConfigured
	}
	return f.updateUserFn(ctx, userID, changes)
}

func (f *fakeUserService) DeleteUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if f.deleteUserFn == nil {
		return nil, errFakeNotConfigured
	}
	return f.deleteUserFn(ctx, userID)
}

// fakeTaskStore is an in-memory store.TaskStore that also records the list
// options it was last called with.
type fakeTaskStore struct {
	mu       sync.Mutex
	tasks    map[uuid.UUID]*domain.Task
	lastOpts store.TaskListOptions
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
	f.lastOpts = opts
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

func (f *fakeTaskStore) listOpts() store.TaskListOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOpts
}

// fakeUserStore implements only the pieces of store.UserStore the handlers
// reach for directly (avatar storage); everything else fails loudly.
type fakeUserStore struct {
	mu      sync.Mutex
	avatars map[uuid.UUID][]byte
	users   map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		avatars: make(map[uuid.UUID][]byte),
		users:   make(map[uuid.UUID]*domain.User),
	}
}

var _ store.UserStore = (*fakeUserStore)(nil)

func (f *fakeUserStore) addUser(user *domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	return errFakeNotConfigured
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, errFakeNotConfigured
}

func (f *fakeUserStore) Update(ctx context.Context, user *domain.User) error {
	return errFakeNotConfigured
}

func (f *fakeUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return errFakeNotConfigured
}

func (f *fakeUserStore) AddToken(ctx context.Context, userID uuid.UUID, token string) error {
	return errFakeNotConfigured
}

func (f *fakeUserStore) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	return errFakeNotConfigured
}

func (f *fakeUserStore) RemoveAllTokens(ctx context.Context, userID uuid.UUID) error {
	return errFakeNotConfigured
}

func (f *fakeUserStore) HasToken(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	return false, errFakeNotConfigured
}

func (f *fakeUserStore) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatar []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return store.ErrUserNotFound
	}
	if avatar == nil {
		delete(f.avatars, userID)
		return nil
	}
	f.avatars[userID] = avatar
	return nil
}

func (f *fakeUserStore) GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return nil, store.ErrUserNotFound
	}
	avatar, ok := f.avatars[userID]
	if !ok || len(avatar) == 0 {
		return nil, store.ErrAvatarNotFound
	}
	return avatar, nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

// testUser builds a stored-looking user for handler tests.
func testUser() *domain.User {
	return &domain.User{
		ID:             uuid.New(),
		Name:           "Mike",
		Age:            27,
		Email:          "mike@example.com",
		HashedPassword: "hashed:56what!!",
	}
}

// withAuth attaches the user and token to the request context the same way
// the auth middleware does.
func withAuth(r *http.Request, user *domain.User, token string) *http.Request {
	ctx := context.WithValue(r.Context(), shared.CurrentUserContextKey, user)
	ctx = context.WithValue(ctx, shared.AuthTokenContextKey, token)
	return r.WithContext(ctx)
}
