/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package chatcrypt

import "github.com/dgraph-io/ristretto"

// MaxCachedKeys bounds how many pair keys a Cipher keeps; the least valuable ones are evicted first
const MaxCachedKeys = 4096

// Cipher seals and opens messages between pairs of users with a configured salt.
// Derived keys are cached per pair, since a derivation costs Iterations rounds of HMAC.
type Cipher struct {
	salt string
	keys *ristretto.Cache // PairID -> Key, nil when the cache could not be built
}

// NewCipher returns a Cipher using salt, or DefaultSalt when salt is empty
func NewCipher(salt string) *Cipher {
	return newCipher(salt, MaxCachedKeys)
}

func newCipher(salt string, maxKeys int64) *Cipher {
	if salt == "" {
		salt = DefaultSalt
	}
	// Every key costs 1, so the cache holds at most maxKeys of them
	keys, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxKeys * 10,
		MaxCost:            maxKeys,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		keys = nil
	}
	return &Cipher{salt: salt, keys: keys}
}

// Key returns the (possibly cached) key of the pair
func (c *Cipher) Key(idA, idB string) Key {
	pair := PairID(idA, idB)
	if c.keys == nil {
		return DeriveConversationKeyWithSalt(idA, idB, c.salt)
	}
	if k, ok := c.keys.Get(pair); ok {
		return k.(Key)
	}
	k := DeriveConversationKeyWithSalt(idA, idB, c.salt)
	c.keys.Set(pair, k, 1)
	return k
}

// Seal encrypts plaintext for the conversation between idA and idB
func (c *Cipher) Seal(idA, idB, plaintext string) (string, error) {
	return Encrypt(plaintext, c.Key(idA, idB))
}

// Open decrypts a message of the conversation between idA and idB, returning Placeholder on failure
func (c *Cipher) Open(idA, idB, ciphertext string) string {
	return DecryptOrPlaceholder(ciphertext, c.Key(idA, idB))
}

// Close stops the cache goroutines. Keys are derived on every call afterwards.
func (c *Cipher) Close() {
	if c.keys != nil {
		c.keys.Close()
	}
}
