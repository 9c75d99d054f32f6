package specialist

import (
	"context"
	"errors"
	"strings"
	"time"

	specialistRepo "servana/database/repository/specialist"
	"servana/models"
	"servana/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

var (
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrSpecialistNotFound    = errors.New("specialist not found")
	ErrInvalidSpecialization = errors.New("specialization must be beauty, laundry or cleaning")
)

// SignUpRequest carries a specialist registration.
type SignUpRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Specialization string `json:"specialization" binding:"required"`
}

// SignInRequest carries specialist credentials.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned from both signup and signin.
type AuthResponse struct {
	Token      string             `json:"token"`
	Specialist *models.Specialist `json:"specialist"`
}

// SpecialistService manages provider accounts.
type SpecialistService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error)
	SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error)
	GetProfile(ctx context.Context, id string) (*models.Specialist, error)
	SetAvailability(ctx context.Context, id string, available bool) error
	UpdateFCMToken(ctx context.Context, id, token string) error
	UpdatePhoto(ctx context.Context, id, photoID string) error
}

// DefaultSpecialistService implements SpecialistService.
type DefaultSpecialistService struct {
	Specialists specialistRepo.SpecialistRepository
	Logger      *zap.Logger
}

func parseSpecialization(raw string) (models.BookingType, error) {
	switch models.BookingType(strings.ToLower(strings.TrimSpace(raw))) {
	case models.BookingTypeBeauty:
		return models.BookingTypeBeauty, nil
	case models.BookingTypeLaundry:
		return models.BookingTypeLaundry, nil
	case models.BookingTypeCleaning:
		return models.BookingTypeCleaning, nil
	default:
		return "", ErrInvalidSpecialization
	}
}

func (s *DefaultSpecialistService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	specialization, err := parseSpecialization(req.Specialization)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.Specialists.GetByEmail(ctx, email)
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
	sp := &models.Specialist{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		PasswordHash:   string(hash),
		Specialization: specialization,
		// New specialists opt in to jobs explicitly.
		Available: false,
	}
	if err := s.Specialists.Create(ctx, sp); err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken(sp.ID, sp.Email, "specialist", tokenTTL)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("specialist registered",
		zap.String("specialistId", sp.ID),
		zap.String("specialization", string(specialization)))
	return &AuthResponse{Token: token, Specialist: sp}, nil
}

func (s *DefaultSpecialistService) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	sp, err := s.Specialists.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(sp.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(sp.ID, sp.Email, "specialist", tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, Specialist: sp}, nil
}

func (s *DefaultSpecialistService) GetProfile(ctx context.Context, id string) (*models.Specialist, error) {
	sp, err := s.Specialists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, ErrSpecialistNotFound
	}
	return sp, nil
}

func (s *DefaultSpecialistService) SetAvailability(ctx context.Context, id string, available bool) error {
	return s.Specialists.SetAvailability(ctx, id, available)
}

func (s *DefaultSpecialistService) UpdateFCMToken(ctx context.Context, id, token string) error {
	return s.Specialists.UpdateSetDocument(ctx, id, bson.M{"fcm_token": token})
}

func (s *DefaultSpecialistService) UpdatePhoto(ctx context.Context, id, photoID string) error {
	return s.Specialists.UpdateSetDocument(ctx, id, bson.M{"photo_id": photoID})
}
