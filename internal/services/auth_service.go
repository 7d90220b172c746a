package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/apperrors"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/storage"
)

// Token roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AuthConfig configures token issuing and the admin account.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
}

// SignupInput is a new account request.
type SignupInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Username string `json:"username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Mobile   string `json:"mobile"`
}

// LoginInput is a credential check request.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is the result of a successful login.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
	Role  string      `json:"role"`
}

// Claims is the decoded content of a session token.
type Claims struct {
	UserID  models.ID
	Email   string
	Role    string
	Session string
}

// AuthService handles business logic for authentication and authorization.
// Credentials are checked here, never by the client.
type AuthService struct {
	userRepo repositories.UserRepository
	store    storage.Store
	cfg      AuthConfig
	log      *logrus.Entry
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, store storage.Store, cfg AuthConfig, log *logrus.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo: userRepo,
		store:    store,
		cfg:      cfg,
		log:      log.WithField("component", "auth"),
		now:      time.Now,
	}
}

// Signup validates and registers a new user with a hashed password.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(in.Email)
	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewValidationError("Email", fmt.Sprintf("email '%s' already registered", email))
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	username := in.Username
	if username == "" {
		username = in.Name
	}
	user := &models.User{
		Name:     in.Name,
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Mobile:   in.Mobile,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	public := user.Public()
	return &public, nil
}

// Login matches the credentials against the user collection, remembers the
// user for owner and issues a token.
func (s *AuthService) Login(ctx context.Context, owner string, in LoginInput) (*Session, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var matched *models.User
	for i := range users {
		if strings.EqualFold(strings.TrimSpace(users[i].Email), strings.TrimSpace(in.Email)) &&
			passwordMatches(users[i].Password, in.Password) {
			matched = &users[i]
			break
		}
	}
	if matched == nil {
		metrics.RecordLogin(RoleUser, false)
		s.log.WithField("session", owner).Info("rejected login")
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}
	metrics.RecordLogin(RoleUser, true)

	public := matched.Public()
	if err := storage.SetJSON(ctx, s.store, storage.UserKey(owner), public); err != nil {
		return nil, fmt.Errorf("failed to remember user: %w", err)
	}
	token, err := s.issueToken(public.ID, public.Email, RoleUser, owner)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: public, Role: RoleUser}, nil
}

// AdminLogin checks the configured admin credentials and sets the admin
// flag for owner.
func (s *AuthService) AdminLogin(ctx context.Context, owner string, in LoginInput) (*Session, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(in.Email))), []byte(strings.ToLower(s.cfg.AdminEmail))) == 1
	passwordOK := passwordMatches(s.cfg.AdminPassword, in.Password)
	if !emailOK || !passwordOK {
		metrics.RecordLogin(RoleAdmin, false)
		s.log.WithField("session", owner).Warn("rejected admin login")
		return nil, fmt.Errorf("invalid admin credentials: %w", apperrors.ErrUnauthorized)
	}
	metrics.RecordLogin(RoleAdmin, true)

	if err := storage.SetJSON(ctx, s.store, storage.AdminKey(owner), models.AdminFlag{IsAuth: true}); err != nil {
		return nil, fmt.Errorf("failed to set admin flag: %w", err)
	}
	admin := models.User{ID: "admin", Email: s.cfg.AdminEmail, Name: "Admin"}
	token, err := s.issueToken(admin.ID, admin.Email, RoleAdmin, owner)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: admin, Role: RoleAdmin}, nil
}

// Logout forgets the user snapshot and admin flag of owner.
func (s *AuthService) Logout(ctx context.Context, owner string) error {
	for _, key := range []string{storage.UserKey(owner), storage.AdminKey(owner)} {
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}

// CurrentUser returns the user remembered for owner.
func (s *AuthService) CurrentUser(ctx context.Context, owner string) (*models.User, error) {
	var user models.User
	err := storage.GetJSON(ctx, s.store, storage.UserKey(owner), &user)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, fmt.Errorf("no user signed in: %w", apperrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IsAdmin reports whether owner carries the admin flag.
func (s *AuthService) IsAdmin(ctx context.Context, owner string) bool {
	var flag models.AdminFlag
	if err := storage.GetJSON(ctx, s.store, storage.AdminKey(owner), &flag); err != nil {
		return false
	}
	return flag.IsAuth
}

func (s *AuthService) issueToken(userID models.ID, email, role, session string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"email":   email,
		"role":    role,
		"session": session,
		"exp":     now.Add(s.cfg.TokenTTL).Unix(),
		"iat":     now.Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v: %w", err, apperrors.ErrUnauthorized)
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
	}

	claims := &Claims{}
	if v, ok := mapClaims["user_id"].(string); ok {
		claims.UserID = models.ParseID(v)
	}
	claims.Email, _ = mapClaims["email"].(string)
	claims.Role, _ = mapClaims["role"].(string)
	claims.Session, _ = mapClaims["session"].(string)
	return claims, nil
}

// passwordMatches compares against a bcrypt hash when stored looks like one
// and in constant time otherwise.
func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
