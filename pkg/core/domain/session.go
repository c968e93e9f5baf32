package domain

type SessionState int

const (
	SessionUnknown SessionState = iota
	SessionRestoring
	SessionAuthenticated
	SessionAnonymous
)

func (s SessionState) String() string {
	switch s {
	case SessionRestoring:
		return "restoring"
	case SessionAuthenticated:
		return "authenticated"
	case SessionAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Session is the signed-in identity held by the console
type Session struct {
	State           SessionState `json:"-"`
	UserID          int64        `json:"userId"`
	Email           string       `json:"email"`
	Role            Role         `json:"role"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// NewSession builds an authenticated session from the user returned by the API
func NewSession(u User) Session {
	u.Normalize()
	return Session{
		State:           SessionAuthenticated,
		UserID:          u.ID,
		Email:           u.Email,
		Role:            u.Role,
		IsAuthenticated: true,
	}
}

func (s Session) IsAdmin() bool {
	return s.IsAuthenticated && s.Role == RoleAdmin
}

// Credentials is the login/register request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
