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
	"testing"

	"jesstore/internal/apperr"
	"jesstore/internal/chatcrypt"
	"jesstore/internal/entity"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenSealer cannot seal anything
type brokenSealer struct{ *chatcrypt.Cipher }

func (brokenSealer) Seal(string, string, string) (string, error) {
	return "", errors.New("entropy exhausted")
}

func TestDirectMessagesAreSealed(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	ana := s.register(t, "ana", 0)
	beto := s.register(t, "beto", 0)
	carla := s.register(t, "carla", 0)
	cipher := chatcrypt.NewCipher("")
	svc := NewMessageService(s.conversations, s.messages, s.users, cipher, &recordingPublisher{}, &MockLogger{})

	conv, err := svc.OpenDirect(ctx, ana.ID, beto.ID)
	require.NoError(t, err)
	again, err := svc.OpenDirect(ctx, beto.ID, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	msg, err := svc.Send(ctx, conv.ID, ana.ID, "hola Beto", true)
	require.NoError(t, err)
	assert.True(t, msg.IsEncrypted)
	assert.NotEqual(t, "hola Beto", msg.Content)

	// Stored sealed, with the pair key
	stored, err := s.messages.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	plain, err := chatcrypt.Decrypt(stored[0].Content, chatcrypt.DeriveConversationKey(beto.ID, ana.ID))
	require.NoError(t, err)
	assert.Equal(t, "hola Beto", plain)

	_, err = svc.Send(ctx, conv.ID, ana.ID, "sin cifrar", false)
	require.NoError(t, err)

	thread, err := svc.Thread(ctx, conv.ID, beto.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "hola Beto", thread[0].Content)
	assert.True(t, thread[0].IsEncrypted)
	assert.Equal(t, "sin cifrar", thread[1].Content)

	_, err = svc.Thread(ctx, conv.ID, carla.ID)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)
	_, err = svc.Send(ctx, conv.ID, carla.ID, "hola", false)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)
	_, err = svc.Send(ctx, conv.ID, ana.ID, "   ", false)
	assert.ErrorIs(t, err, apperr.ErrEmptyMessage)
	_, err = svc.OpenDirect(ctx, ana.ID, "nobody")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	_, err = svc.OpenDirect(ctx, ana.ID, ana.ID)
	assert.Error(t, err)
}

func TestSealFailureFallsBackToPlaintext(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	ana := s.register(t, "ana", 0)
	beto := s.register(t, "beto", 0)
	svc := NewMessageService(s.conversations, s.messages, s.users, brokenSealer{chatcrypt.NewCipher("")}, &recordingPublisher{}, &MockLogger{})

	conv, err := svc.OpenDirect(ctx, ana.ID, beto.ID)
	require.NoError(t, err)
	msg, err := svc.Send(ctx, conv.ID, ana.ID, "hola", true)
	require.NoError(t, err)
	assert.False(t, msg.IsEncrypted)
	assert.Equal(t, "hola", msg.Content)
}

func TestUndecryptableMessagesRenderPlaceholder(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	ana := s.register(t, "ana", 0)
	beto := s.register(t, "beto", 0)
	svc := NewMessageService(s.conversations, s.messages, s.users, chatcrypt.NewCipher(""), &recordingPublisher{}, &MockLogger{})

	conv, err := svc.OpenDirect(ctx, ana.ID, beto.ID)
	require.NoError(t, err)

	foreign, err := chatcrypt.Encrypt("secreto", chatcrypt.DeriveConversationKey("x", "y"))
	require.NoError(t, err)
	_, err = svc.StoreEncrypted(ctx, conv.ID, ana.ID, foreign)
	require.NoError(t, err)
	_, err = svc.StoreEncrypted(ctx, conv.ID, ana.ID, "not base64 at all!")
	require.NoError(t, err)
	client, err := chatcrypt.Encrypt("del cliente", chatcrypt.DeriveConversationKey(ana.ID, beto.ID))
	require.NoError(t, err)
	_, err = svc.StoreEncrypted(ctx, conv.ID, beto.ID, client)
	require.NoError(t, err)

	thread, err := svc.Thread(ctx, conv.ID, ana.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, chatcrypt.Placeholder, thread[0].Content)
	assert.Equal(t, chatcrypt.Placeholder, thread[1].Content)
	assert.Equal(t, "del cliente", thread[2].Content)
}

func TestVacaChatIsNotSealed(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	u1 := s.register(t, "uno", 0)
	u2 := s.register(t, "dos", 0)
	u3 := s.register(t, "tres", 0)

	vaca, err := NewVacaService(s.bags, &recordingPublisher{}, &MockLogger{}).CreatePooledGift(ctx, PooledGiftRequest{
		CreatorID: u1.ID, RecipientID: u2.ID, ParticipantIDs: []string{u3.ID},
		ProductHandle: "reloj", GoalAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	svc := NewMessageService(s.conversations, s.messages, s.users, chatcrypt.NewCipher(""), &recordingPublisher{}, &MockLogger{})
	msg, err := svc.Send(ctx, vaca.Conversation.ID, u3.ID, "¡pongo mi parte!", true)
	require.NoError(t, err)
	assert.False(t, msg.IsEncrypted)

	thread, err := svc.Thread(ctx, vaca.Conversation.ID, u1.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.True(t, thread[0].IsSystem)
	assert.Equal(t, "¡pongo mi parte!", thread[2].Content)

	// The recipient is not in the chat
	_, err = svc.Thread(ctx, vaca.Conversation.ID, u2.ID)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)

	views, err := svc.ListConversations(ctx, u3.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, entity.ConversationVaca, views[0].Type)
	require.NotNil(t, views[0].LastMessageAt)
}
