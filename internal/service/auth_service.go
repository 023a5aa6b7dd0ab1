package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/romes311/tourismiq/internal/model"
	"github.com/romes311/tourismiq/internal/repository"
	"github.com/romes311/tourismiq/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string, organization *string) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	search   SearchService
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, search SearchService, secret string, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo: userRepo,
		search:   search,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string, organization *string) (*model.User, error) {
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", apperror.ErrAlreadyExists)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Organization: organization,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.search != nil {
		s.search.IndexUser(ctx, user)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}
