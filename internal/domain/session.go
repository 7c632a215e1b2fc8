package domain

import "context"

type SessionState string

const (
	StateGuest         SessionState = "guest"
	StateAuthenticated SessionState = "authenticated"
)

// Identity is the user derived from the stored credential. A nil *Identity means guest.
type Identity struct {
	ID string `json:"id"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// KeyValueStore is the persistent storage slot shared by the guest cart and the credential.
// Get reports ok=false when the key is absent.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// AuthAPI is the remote authentication collaborator.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, req SignupRequest) (*Profile, error)
	Me(ctx context.Context) (*Profile, error)
}

type SessionCoordinator interface {
	Login(ctx context.Context, email, password string) (*Identity, error)
	Signup(ctx context.Context, req SignupRequest) (*Profile, error)
	OnLogin(ctx context.Context, token string) (*Identity, error)
	OnLogout(ctx context.Context) error
	Identity(ctx context.Context) *Identity
	Profile(ctx context.Context) (*Profile, error)
	State(ctx context.Context) SessionState
	ConsumeExpired() bool
	Subscribe(handler func(*Identity)) (unsubscribe func())
}
