package auth

import (
	"os"
	"time"
)

const (
	envSessionID = "IGHARVEST_SESSION_ID"
	envCSRFToken = "IGHARVEST_CSRF_TOKEN"
	envUsername  = "IGHARVEST_USERNAME"
	envUserAgent = "IGHARVEST_USER_AGENT"
)

// EnvironmentStore reads a single session from IGHARVEST_* variables. It is
// read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment session. An empty username matches it,
// otherwise the name must equal IGHARVEST_USERNAME when that is set.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	sessionID := os.Getenv(envSessionID)
	if sessionID == "" {
		return nil, ErrCredentialsNotFound
	}

	name := os.Getenv(envUsername)
	switch {
	case username == "" && name == "":
		name = "default"
	case username != "" && name != "" && username != name:
		return nil, ErrCredentialsNotFound
	case username != "":
		name = username
	}

	return &Account{
		Username:     name,
		SessionID:    sessionID,
		CSRFToken:    os.Getenv(envCSRFToken),
		UserAgent:    os.Getenv(envUserAgent),
		LastModified: time.Now(),
	}, nil
}

// List returns the environment account if one is configured
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
