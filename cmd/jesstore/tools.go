/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"jesstore/internal/chatcrypt"
	"jesstore/internal/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	var salt string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Inspect the direct chat cipher",
	}
	cmd.PersistentFlags().StringVar(&salt, "salt", chatcrypt.DefaultSalt, "application salt")

	cmd.AddCommand(&cobra.Command{
		Use:   "key [idA] [idB]",
		Short: "Print the key of the conversation between two users, in hex",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			key := chatcrypt.DeriveConversationKeyWithSalt(args[0], args[1], salt)
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key[:]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "encrypt [idA] [idB] [plaintext]",
		Short: "Seal a message the way direct chats store it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sealed, err := chatcrypt.Encrypt(args[2], chatcrypt.DeriveConversationKeyWithSalt(args[0], args[1], salt))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "decrypt [idA] [idB] [ciphertext]",
		Short: "Open a stored direct chat message",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, err := chatcrypt.Decrypt(args[2], chatcrypt.DeriveConversationKeyWithSalt(args[0], args[1], salt))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plain)
			return nil
		},
	})
	return cmd
}

func vacaCmd() *cobra.Command {
	var currency string
	cmd := &cobra.Command{
		Use:   "vaca",
		Short: "Vaca helpers",
	}

	share := &cobra.Command{
		Use:   "share [goal] [participants]",
		Short: "Print what each contributor pays; participants does not count the creator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			goal, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid goal %q: %w", args[0], err)
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return fmt.Errorf("invalid participant count %q", args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), service.FormatAmount(service.ContributionShare(goal, n), currency))
			return nil
		},
	}
	share.Flags().StringVar(&currency, "currency", service.DefaultCurrency, "ISO 4217 currency")
	cmd.AddCommand(share)
	return cmd
}
