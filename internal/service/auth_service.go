/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"context"
	"strings"
	"time"

	"jesstore/internal/apperr"
	"jesstore/internal/entity"
	"jesstore/internal/nlog"
	"jesstore/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Service used for the user registration and login phases
type AuthService interface {
	Register(ctx context.Context, username, displayName, password string) (*entity.User, error) // Tries to create a new user in the system, returning it if successful
	Login(ctx context.Context, username, password string) (*entity.User, error)                 // Tries to authenticate a user via its credentials, returning the user entity if successful.
}

type localAuthService struct {
	userRepository repository.UserRepository // Repository for users
	signupCoins    decimal.Decimal           // JES Coins granted on registration
	logger         nlog.Logger               // Logs a format string
}

func NewAuthService(userRepo repository.UserRepository, signupCoins decimal.Decimal, logger nlog.Logger) AuthService {
	return &localAuthService{
		userRepository: userRepo,
		signupCoins:    signupCoins,
		logger:         logger,
	}
}

func (a *localAuthService) Logf(format string, v ...any) {
	a.logger.Logf(format, v...)
}

func (a *localAuthService) Register(ctx context.Context, username, displayName, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.ErrInvalidCredential
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		a.Logf("Could not calculate hash{%v}", err)
		return nil, errors.Wrap(err, "hashing password")
	}

	id := uuid.New().String()
	u := &entity.User{
		ID:          id,
		Username:    username,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   time.Now(),

		Secret: entity.UserSecret{
			UserID: id,
			Hash:   string(hash),
		},
	}
	if err := a.userRepository.Create(ctx, u, a.signupCoins); err != nil {
		a.Logf("User %s could not be registered {%v}", username, err)
		return nil, err
	}
	a.Logf("User %s registered", u.ID)
	return u, nil
}

func (a *localAuthService) Login(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := a.userRepository.GetForLogin(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil, apperr.ErrBadCredentials
		}
		return nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(u.Secret.Hash), []byte(password)); err != nil {
		a.Logf("Wrong credentials for %s", username)
		return nil, apperr.ErrBadCredentials
	}
	return u, nil
}
