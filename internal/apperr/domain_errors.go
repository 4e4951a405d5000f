/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package apperr

var (
	// Request validation
	ErrMissingFields     = InvalidArg("creatorId, recipientId, participantIds, productHandle and goalAmount are required")
	ErrInvalidGoal       = InvalidArg("goal amount must be positive")
	ErrInvalidAmount     = InvalidArg("amount must be positive")
	ErrSelfGift          = InvalidArg("sender and recipient must differ")
	ErrInvalidCurrency   = InvalidArg("currency must be a three letter ISO 4217 code")
	ErrInvalidCredential = InvalidArg("username and password are required")
	ErrEmptyMessage      = InvalidArg("message content cannot be empty")

	// Lookups
	ErrUserNotFound         = NotFound("user not found")
	ErrBagNotFound          = NotFound("bag not found")
	ErrGiftNotFound         = NotFound("gift not found")
	ErrConversationNotFound = NotFound("conversation not found")
	ErrWalletNotFound       = NotFound("wallet not found")

	// State
	ErrUsernameTaken     = AlreadyExists("username is already taken")
	ErrAlreadySettled    = FailedPrecondition("payment already settled")
	ErrInsufficientFunds = FailedPrecondition("insufficient JES Coins")
	ErrUnknownReference  = InvalidArg("unknown external reference")

	// Access
	ErrNotParticipant = Forbidden("user is not a participant")
	ErrWrongCreator   = Forbidden("creatorId must be the logged user")
	ErrBadCredentials = Unauthorized("wrong credentials")
	ErrNotLoggedIn    = Unauthorized("login required")
	ErrForeignAccount = Forbidden("cannot act on someone else's account")
	ErrGiftNotYourOwn = Forbidden("gift belongs to other users")
)
