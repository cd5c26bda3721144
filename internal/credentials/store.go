package credentials

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "lazycirc"

// ErrPasswordNotFound is returned when no password is stored for a server
// and user
var ErrPasswordNotFound = errors.New("password not found")

// PasswordSaveError is returned when the keyring rejects a write
type PasswordSaveError struct {
	Err     error
	Message string
}

func (e *PasswordSaveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *PasswordSaveError) Unwrap() error { return e.Err }

// PasswordStore keeps admin passwords in the OS keyring
type PasswordStore struct {
	service string
}

// NewPasswordStore creates a password store
func NewPasswordStore() *PasswordStore {
	return &PasswordStore{service: serviceName}
}

// Save stores a password for user on the server at baseURL
func (ps *PasswordStore) Save(baseURL, user, password string) error {
	if password == "" {
		// Don't save empty passwords
		return nil
	}
	if err := keyring.Set(ps.service, makeKey(baseURL, user), password); err != nil {
		return &PasswordSaveError{Err: err, Message: "failed to save password to keyring"}
	}
	return nil
}

// Get retrieves a password from the keyring
func (ps *PasswordStore) Get(baseURL, user string) (string, error) {
	password, err := keyring.Get(ps.service, makeKey(baseURL, user))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", fmt.Errorf("failed to read password from keyring: %w", err)
	}
	return password, nil
}

// Delete removes a password from the keyring
func (ps *PasswordStore) Delete(baseURL, user string) error {
	err := keyring.Delete(ps.service, makeKey(baseURL, user))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

// makeKey creates a unique key for password storage: "user@host/path"
func makeKey(baseURL, user string) string {
	host := strings.TrimRight(baseURL, "/")
	if u, err := url.Parse(host); err == nil && u.Host != "" {
		host = u.Host + strings.TrimRight(u.Path, "/")
	}
	return user + "@" + host
}
