package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
)

// dummyHash is compared against when the email is unknown so that the
// unknown-email and wrong-password paths stay in the same timing class.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcrypt.MinCost)

// AuthService implements registration, login and token handling.
type AuthService struct {
	users      ports.UserRepository
	audit      ports.AuditRecorder
	notifier   ports.NotificationDispatcher
	jwtSecret  string
	tokenTTL   time.Duration
	bcryptCost int
}

func NewAuthService(users ports.UserRepository, audit ports.AuditRecorder, notifier ports.NotificationDispatcher, jwtSecret string, tokenTTL time.Duration, bcryptCost int) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, audit: audit, notifier: notifier, jwtSecret: jwtSecret, tokenTTL: tokenTTL, bcryptCost: bcryptCost}
}

func (s *AuthService) Register(ctx context.Context, actor domain.Actor, input ports.RegisterInput) (*domain.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" {
		return nil, domain.Invalid("name", "is required")
	}
	if input.Email == "" {
		return nil, domain.Invalid("email", "is required")
	}
	if len(input.Password) < 6 {
		return nil, domain.Invalid("password", "must be at least 6 characters")
	}
	if !domain.ValidRole(input.Role) {
		return nil, domain.Invalid("role", "must be one of admin, support, end_user")
	}

	// The first user of an empty store may self-register with any role; after
	// that, registration is gated on users:create.
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 && !domain.HasPermission(actor.Role, domain.CapUsersCreate) {
		return nil, domain.Forbidden(domain.CapUsersCreate)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    actor,
		Action:   domain.AuditUserCreated,
		Entity:   "users",
		EntityID: created.ID,
		Changes:  map[string]any{"email": created.Email, "role": created.Role},
	})
	if s.notifier != nil {
		s.notifier.UserEvent(ctx, domain.NotifUserCreated, created, actor)
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Burn a comparison so the caller cannot distinguish an unknown
			// email from a wrong password by response time.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	s.audit.Record(ctx, ports.AuditEntry{
		Actor:    domain.Actor{UserID: user.ID, Role: user.Role},
		Action:   domain.AuditLogin,
		Entity:   "users",
		EntityID: user.ID,
	})

	return token, user, nil
}

// ParseToken validates the token signature and expiry and returns its claims.
func (s *AuthService) ParseToken(token string) (ports.TokenClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.TokenClaims{}, domain.ErrTokenExpired
		}
		return ports.TokenClaims{}, domain.ErrTokenInvalid
	}
	if !tkn.Valid {
		return ports.TokenClaims{}, domain.ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return ports.TokenClaims{}, domain.ErrTokenInvalid
	}
	return ports.TokenClaims{UserID: sub, Role: role}, nil
}

// ResolveUser re-reads the user so role and existence are always fresh, never
// trusted solely from the token payload.
func (s *AuthService) ResolveUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
