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

	"jesstore/internal/apperr"
	"jesstore/internal/entity"
	"jesstore/internal/nlog"
	"jesstore/internal/repository"
)

// Service used to read public profiles and to close one's own account
type UserService interface {
	GetUser(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	DeleteUser(ctx context.Context, id, requesterID string) error // Soft deletes the account, only its owner can
}

type localUserService struct {
	users  repository.UserRepository
	logger nlog.Logger
}

func NewUserService(users repository.UserRepository, logger nlog.Logger) UserService {
	return &localUserService{users: users, logger: logger}
}

func (u *localUserService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return u.users.GetByID(ctx, id)
}

func (u *localUserService) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return u.users.GetByUsername(ctx, username)
}

func (u *localUserService) DeleteUser(ctx context.Context, id, requesterID string) error {
	if id != requesterID {
		return apperr.ErrForeignAccount
	}
	if err := u.users.SoftDelete(ctx, id); err != nil {
		return err
	}
	u.logger.Logf("User %s deleted its account", id)
	return nil
}
