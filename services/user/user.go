package user

import (
	"context"
	"errors"
	"strings"
	"time"

	userRepo "servana/database/repository/user"
	"servana/models"
	"servana/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// SignUpRequest carries a client registration.
type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// SignInRequest carries client credentials.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned from both signup and signin.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UserService manages client accounts.
type UserService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error)
	SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error)
	GetProfile(ctx context.Context, id string) (*models.User, error)
	UpdateFCMToken(ctx context.Context, id, token string) error
}

// DefaultUserService implements UserService.
type DefaultUserService struct {
	Users  userRepo.UserRepository
	Logger *zap.Logger
}

func (s *DefaultUserService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken(user.ID, user.Email, "user", tokenTTL)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("user registered", zap.String("userId", user.ID))
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *DefaultUserService) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Email, "user", tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *DefaultUserService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *DefaultUserService) UpdateFCMToken(ctx context.Context, id, token string) error {
	return s.Users.UpdateSetDocument(ctx, id, bson.M{"fcm_token": token})
}
