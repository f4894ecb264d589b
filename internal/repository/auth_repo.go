package repository

import (
	"fmt"
	"sync"

	"irrigation_control/internal/models"
)

// UserFile stores operator accounts in one JSON file.
type UserFile struct {
	mu   sync.Mutex
	path string
}

func NewUserFile(path string) *UserFile {
	return &UserFile{path: path}
}

var _ Authorization = (*UserFile)(nil)

// Create inserts a new user and returns its ID.
func (r *UserFile) Create(username, passwordHash string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []models.User
	if err := readJSONList(r.path, &users); err != nil {
		return 0, err
	}

	nextID := 1
	for _, u := range users {
		if u.Username == username {
			return 0, fmt.Errorf("user %q already exists", username)
		}
		if u.ID >= nextID {
			nextID = u.ID + 1
		}
	}

	users = append(users, models.User{ID: nextID, Username: username, PasswordHash: passwordHash})
	if err := writeJSONAtomic(r.path, users); err != nil {
		return 0, err
	}
	return nextID, nil
}

// GetByUsername fetches a user by username. Returns (nil, nil) if not found.
func (r *UserFile) GetByUsername(username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []models.User
	if err := readJSONList(r.path, &users); err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, nil
}
