/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package handler

import (
	"net/http"

	"jesstore/internal/service"

	"github.com/gorilla/mux"
)

type messageReqFields struct {
	Content     string `json:"content"`
	Encrypt     bool   `json:"encrypt"`     // Seal it server side, direct chats only
	IsEncrypted bool   `json:"isEncrypted"` // Already sealed by the client
}

// MessageHandler is used for conversations and their messages
type MessageHandler struct {
	messageService service.MessageService
}

func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService}
}

// Opens (or retrieves) the direct chat with another user
func (m *MessageHandler) OpenDirect(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	conversation, err := m.messageService.OpenDirect(r.Context(), user.ID, mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (m *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	views, err := m.messageService.ListConversations(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Retrieves the thread, already opened for the logged user
func (m *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	messages, err := m.messageService.Thread(r.Context(), mux.Vars(r)["id"], user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (m *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var request messageReqFields
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, err)
		return
	}

	conversationID := mux.Vars(r)["id"]
	var err error
	var stored any
	if request.IsEncrypted {
		stored, err = m.messageService.StoreEncrypted(r.Context(), conversationID, user.ID, request.Content)
	} else {
		stored, err = m.messageService.Send(r.Context(), conversationID, user.ID, request.Content, request.Encrypt)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}
