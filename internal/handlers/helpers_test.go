package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/carbrainiac/apiserver/internal/store"
	"github.com/carbrainiac/apiserver/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]types.User{}}
}

func (m *memUserRepo) seed(t *testing.T, name, email, password, userType string) types.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := types.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		UserType:     userType,
		PasswordHash: string(hashed),
	}
	m.mu.Lock()
	m.users[user.ID] = user
	m.mu.Unlock()
	return user
}

func (m *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserRepo) List(ctx context.Context) ([]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]types.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	user.ID = uuid.New()
	m.users[user.ID] = user
	return user, nil
}

func (m *memUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type memCarRepo struct {
	mu         sync.Mutex
	cars       map[uuid.UUID]types.Car
	lastFilter types.CarFilter
}

func newMemCarRepo() *memCarRepo {
	return &memCarRepo{cars: map[uuid.UUID]types.Car{}}
}

func (m *memCarRepo) seed(car types.Car) types.Car {
	m.mu.Lock()
	defer m.mu.Unlock()
	if car.ID == uuid.Nil {
		car.ID = uuid.New()
	}
	m.cars[car.ID] = car
	return car
}

func (m *memCarRepo) List(ctx context.Context, filter types.CarFilter) ([]types.Car, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	cars := make([]types.Car, 0, len(m.cars))
	for _, car := range m.cars {
		cars = append(cars, car)
	}
	return cars, len(cars), nil
}

func (m *memCarRepo) Get(ctx context.Context, id uuid.UUID) (types.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	car, ok := m.cars[id]
	if !ok {
		return types.Car{}, store.ErrNotFound
	}
	return car, nil
}

func (m *memCarRepo) Create(ctx context.Context, car types.Car) (types.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	car.ID = uuid.New()
	m.cars[car.ID] = car
	return car, nil
}

// Update mirrors the SQL repository: only the mutable columns change,
// pictures, seller, and creation time are read back from the stored row.
func (m *memCarRepo) Update(ctx context.Context, car types.Car) (types.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.cars[car.ID]
	if !ok {
		return types.Car{}, store.ErrNotFound
	}
	car.Pictures = existing.Pictures
	car.SellerID = existing.SellerID
	car.CreatedAt = existing.CreatedAt
	m.cars[car.ID] = car
	return car, nil
}

func (m *memCarRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cars[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.cars, id)
	return nil
}

type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}}
}

func (m *memObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memObjectStore) PublicURL(key string) string {
	return "http://localhost:9000/listings/" + key
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
