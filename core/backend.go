package core

import (
	"context"
	"sync"
)

// Backend is the data and authentication service the directory runs on.
// Writes are scoped to the organization that owns the rows.
type Backend interface {
	Configured() bool

	ListPublishedEvents(ctx context.Context) ([]Event, error)
	ListEventsByOrganization(ctx context.Context, organizationId string) ([]Event, error)
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	CreateEvents(ctx context.Context, events []Event) ([]Event, error)
	UpdateEvent(ctx context.Context, organizationId string, id string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, organizationId string, id string) error
	DeleteEvents(ctx context.Context, organizationId string, ids []string) error
	SetStatus(ctx context.Context, organizationId string, ids []string, status Status) ([]Event, error)
	ListOrganizations(ctx context.Context) ([]Organization, error)

	Authenticator
}

type Authenticator interface {
	SignIn(ctx context.Context, email string, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*User, *Profile, error)
	OnAuthStateChange(listener AuthListener) (unsubscribe func())
	Invite(ctx context.Context, email string, organizationId string) (*Invitation, error)
	AcceptInvite(ctx context.Context, token string, password string) (*Session, error)
}

type AuthEvent string

const (
	AuthSignedIn  AuthEvent = "SIGNED_IN"
	AuthSignedOut AuthEvent = "SIGNED_OUT"
)

type AuthListener func(event AuthEvent, user *User)

// AuthNotifier fans auth state changes out to registered listeners.
type AuthNotifier struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]AuthListener
}

func NewAuthNotifier() *AuthNotifier {
	return &AuthNotifier{listeners: make(map[int]AuthListener)}
}

func (n *AuthNotifier) Subscribe(listener AuthListener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	n.listeners[id] = listener

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		delete(n.listeners, id)
	}
}

func (n *AuthNotifier) Notify(event AuthEvent, user *User) {
	n.mu.RLock()

	listeners := make([]AuthListener, 0, len(n.listeners))
	for _, l := range n.listeners {
		listeners = append(listeners, l)
	}

	n.mu.RUnlock()

	for _, l := range listeners {
		l(event, user)
	}
}

// unconfiguredBackend serves empty reads and refuses writes.
type unconfiguredBackend struct{}

func NewUnconfiguredBackend() Backend {
	return unconfiguredBackend{}
}

func (unconfiguredBackend) Configured() bool {
	return false
}

func (unconfiguredBackend) ListPublishedEvents(context.Context) ([]Event, error) {
	return []Event{}, nil
}

func (unconfiguredBackend) ListEventsByOrganization(context.Context, string) ([]Event, error) {
	return []Event{}, nil
}

func (unconfiguredBackend) CreateEvent(context.Context, *Event) (*Event, error) {
	return nil, ErrNotConfigured
}

func (unconfiguredBackend) CreateEvents(context.Context, []Event) ([]Event, error) {
	return nil, ErrNotConfigured
}

func (unconfiguredBackend) UpdateEvent(context.Context, string, string, EventPatch) (*Event, error) {
	return nil, ErrNotConfigured
}

func (unconfiguredBackend) DeleteEvent(context.Context, string, string) error {
	return ErrNotConfigured
}

func (unconfiguredBackend) DeleteEvents(context.Context, string, []string) error {
	return ErrNotConfigured
}

func (unconfiguredBackend) SetStatus(context.Context, string, []string, Status) ([]Event, error) {
	return nil, ErrNotConfigured
}

func (unconfiguredBackend) ListOrganizations(context.Context) ([]Organization, error) {
	return []Organization{}, nil
}

func (unconfiguredBackend) SignIn(context.Context, string, string) (*Session, error) {
	return nil, ErrNotConfigured
}

func (unconfiguredBackend) SignOut(context.Context, string) error {
	return nil
}

func (unconfiguredBackend) CurrentUser(context.Context, string) (*User, *Profile, error) {
	return nil, nil, nil
}

func (unconfiguredBackend) OnAuthStateChange(listener AuthListener) func() {
	listener(AuthSignedOut, nil)
	return func() {}
}

func (unconfiguredBackend) Invite(context.Context, string, string) (*Invitation, error) {
	return nil, ErrNotConfigured
}

func (unconfiguredBackend) AcceptInvite(context.Context, string, string) (*Session, error) {
	return nil, ErrNotConfigured
}
