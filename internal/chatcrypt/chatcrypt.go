/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package chatcrypt derives the symmetric key shared by the two users of a direct conversation and
// seals/opens chat messages with it.
//
// The key is a pure function of the two user ids and an application-wide salt: both sides recompute it
// whenever they need it and it is never stored. Anyone who knows both ids can derive it too, so this
// protects stored ciphertext from casual inspection and nothing more.
package chatcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultSalt is the fixed application salt. Changing it makes every stored ciphertext unreadable.
	DefaultSalt = "jes-store-chat-salt-v1"

	Iterations = 100000
	KeySize    = 32 // AES-256
	IVSize     = 12

	// Placeholder is shown instead of a message that cannot be decrypted
	Placeholder = "🔒 No se pudo descifrar este mensaje"
)

// ErrUndecryptable covers every decryption failure: bad base64, short input, wrong key, tampering.
var ErrUndecryptable = errors.New("message could not be decrypted")

// Key is the AES-256-GCM key of one conversation
type Key [KeySize]byte

// PairID returns the canonical form of an unordered pair of user ids: sorted and joined with ':'.
func PairID(idA, idB string) string {
	ids := []string{idA, idB}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// DeriveConversationKey derives the key of the conversation between idA and idB with the default salt.
// The order of the two ids does not matter.
func DeriveConversationKey(idA, idB string) Key {
	return DeriveConversationKeyWithSalt(idA, idB, DefaultSalt)
}

// DeriveConversationKeyWithSalt is DeriveConversationKey with an explicit salt
func DeriveConversationKeyWithSalt(idA, idB, salt string) Key {
	var k Key
	copy(k[:], pbkdf2.Key([]byte(PairID(idA, idB)), []byte(salt), Iterations, KeySize, sha256.New))
	return k
}

func newGCM(key Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Wrap(err, "Failed to initialize AES")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to initialize GCM")
	}
	return gcm, nil
}

// Encrypt seals plaintext under key with a fresh random IV and returns base64(IV || ciphertext+tag).
func Encrypt(plaintext string, key Key) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", errors.Wrap(err, "Failed to generate IV")
	}

	sealed := gcm.Seal(iv, iv, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Any failure is reported as ErrUndecryptable.
func Decrypt(ciphertext string, key Key) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Wrap(ErrUndecryptable, "not base64")
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(data) < IVSize+gcm.Overhead() {
		return "", errors.Wrap(ErrUndecryptable, "too short")
	}

	iv, sealed := data[:IVSize], data[IVSize:]
	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", errors.Wrap(ErrUndecryptable, "authentication failed")
	}
	return string(plaintext), nil
}

// DecryptOrPlaceholder is the render-path decryption: it never fails, a message that cannot be opened
// becomes Placeholder so one bad row does not break a whole thread.
func DecryptOrPlaceholder(ciphertext string, key Key) string {
	plaintext, err := Decrypt(ciphertext, key)
	if err != nil {
		return Placeholder
	}
	return plaintext
}
