package repositories

import (
	"sync"
	"time"

	"accounthub/internal/models"
)

// MemoryUserRepository is a map-backed UserRepository for tests and
// local runs without a database.
type MemoryUserRepository struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{nextID: 1, users: map[int]*models.User{}}
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (r *MemoryUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *MemoryUserRepository) GetByID(id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyUser(r.users[id]), nil
}

func (r *MemoryUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) GetByPhone(phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == phone {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *MemoryUserRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepository) List(limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.User, 0, len(r.users))
	// iteration in id order, matching ORDER BY id
	for id := 1; id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			out = append(out, copyUser(u))
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryUserRepository) GetCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *MemoryUserRepository) Activate(userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		now := time.Now()
		u.IsActive = true
		u.ActivatedAt = &now
	}
	return nil
}

func (r *MemoryUserRepository) UpdatePassword(userID int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (r *MemoryUserRepository) UpdateEmail(userID int, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.Email = email
	}
	return nil
}

func (r *MemoryUserRepository) UpdatePhone(userID int, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.Phone = phone
	}
	return nil
}

func (r *MemoryUserRepository) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.RefreshToken = &token
		u.RefreshExpiresAt = &expiresAt
		u.RefreshRevoked = false
	}
	return nil
}

func (r *MemoryUserRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == oldToken && !u.RefreshRevoked &&
			u.RefreshExpiresAt != nil && u.RefreshExpiresAt.After(time.Now()) {
			u.RefreshToken = &newToken
			u.RefreshExpiresAt = &newExpiresAt
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) ClearRefresh(userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.RefreshToken = nil
		u.RefreshExpiresAt = nil
		u.RefreshRevoked = true
	}
	return nil
}

func (r *MemoryUserRepository) GetByRefreshToken(token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == token && !u.RefreshRevoked {
			return copyUser(u), nil
		}
	}
	return nil, nil
}
