package app

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LocalIdentity is the in-process, single-user identity provider.
type LocalIdentity struct {
	idGen IDGenerator

	mu      sync.Mutex
	users   map[string]User
	current *User
}

// NewLocalIdentity constructs an identity provider. A non-empty displayName is signed up and
// signed in immediately.
func NewLocalIdentity(displayName string, idGen IDGenerator) *LocalIdentity {
	if idGen == nil {
		idGen = uuid.NewString
	}
	id := &LocalIdentity{
		idGen: idGen,
		users: map[string]User{},
	}
	if strings.TrimSpace(displayName) != "" {
		_, _ = id.Signup(context.Background(), displayName)
	}
	return id
}

// Signup registers a user and signs them in. Signing up an existing name signs in as that user.
func (l *LocalIdentity) Signup(_ context.Context, name string) (User, error) {
	key, err := identityKey(name)
	if err != nil {
		return User{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	user, ok := l.users[key]
	if !ok {
		user = User{ID: l.idGen(), DisplayName: strings.TrimSpace(name)}
		l.users[key] = user
	}
	l.current = &user
	return user, nil
}

// Login signs in a previously registered user.
func (l *LocalIdentity) Login(_ context.Context, name string) (User, error) {
	key, err := identityKey(name)
	if err != nil {
		return User{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	user, ok := l.users[key]
	if !ok {
		return User{}, ErrUnauthenticated
	}
	l.current = &user
	return user, nil
}

// Logout clears the current session.
func (l *LocalIdentity) Logout(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = nil
	return nil
}

// CurrentUser returns the signed-in user or ErrUnauthenticated.
func (l *LocalIdentity) CurrentUser(context.Context) (User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return User{}, ErrUnauthenticated
	}
	return *l.current, nil
}

func identityKey(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", ErrUnauthenticated
	}
	return key, nil
}
