package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrihealth-server/internal/domain"
)

const minPasswordLength = 6

// Claims is what a validated token says about its bearer
type Claims struct {
	UserID uuid.UUID
	Role   domain.Role
}

// RegisterRequest is the body of a registration
type RegisterRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
	Role     string  `json:"role"`
}

// ProfileUpdate lists the fields a user may change on their profile
type ProfileUpdate struct {
	Username *string `json:"username"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
}

// AuthService registers users and issues HS256 tokens
type AuthService struct {
	logger    *logrus.Logger
	users     domain.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewAuthService creates an auth service
func NewAuthService(logger *logrus.Logger, users domain.UserRepository, cfg domain.AuthConfig) *AuthService {
	return &AuthService{
		logger:    logger,
		users:     users,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  cfg.TokenTTL,
		now:       time.Now,
	}
}

// Register creates an account and returns it with a fresh token
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*domain.User, string, error) {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, "", domain.NewValidationError("username", "Username, email and password are required", nil)
	}
	if !isValidEmail(req.Email) {
		return nil, "", domain.NewValidationError("email", "Invalid email address", req.Email)
	}
	if len(req.Password) < minPasswordLength {
		return nil, "", domain.NewValidationError("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength), nil)
	}

	role := domain.RoleFarmer
	if req.Role != "" {
		role = domain.Role(req.Role)
		if !role.IsValid() || role == domain.RoleAdmin {
			return nil, "", domain.NewValidationError("role", "Role must be farmer, veterinarian or expert", req.Role)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Phone:        req.Phone,
		Location:     req.Location,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	return user, token, nil
}

// Login checks the credentials and returns the user with a fresh token.
// Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthenticated)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ValidateToken verifies signature and expiry and returns the claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		if err == nil {
			return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("invalid token: %w: %w", domain.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthenticated)
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in token: %w", domain.ErrUnauthenticated)
	}
	rawRole, _ := claims["role"].(string)

	return &Claims{UserID: userID, Role: domain.Role(rawRole)}, nil
}

// Profile returns the account behind a token
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("user not found or invalid token: %w", domain.ErrUnauthenticated)
	}
	return user, err
}

// UpdateProfile applies the non-nil fields of update
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, update *ProfileUpdate) (*domain.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		if name == "" {
			return nil, domain.NewValidationError("username", "Username cannot be empty", nil)
		}
		user.Username = name
	}
	if update.Phone != nil {
		user.Phone = update.Phone
	}
	if update.Location != nil {
		user.Location = update.Location
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && strings.Contains(email[at:], ".")
}
