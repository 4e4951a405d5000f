/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jesstore/internal"
	"jesstore/internal/data"
	"jesstore/internal/node"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the store backend, reading <config>/.cfg.
Every key can be overridden by an environment variable: JES_DB_DSN overrides db-dsn.

Examples:
  jesstore serve --config ./deploy
  JES_NATS_URL=nats://localhost:4222 jesstore serve --config ./deploy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.LoadConfig(folder)
			if err != nil {
				return err
			}

			n, err := node.NewStoreNode(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			n.SetContextCancelFunc(ctx, stop)

			fmt.Printf("Listening on :%d\n", cfg.HTTPServerPort)
			if err := n.Start(); err != nil {
				return err
			}
			fmt.Println("Shutting off...")
			return nil
		},
	}
	cmd.Flags().StringVarP(&folder, "config", "c", ".", "folder holding the .cfg file")
	return cmd
}

func migrateCmd() *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.LoadConfig(folder)
			if err != nil {
				return err
			}

			db, err := data.OpenDatabase(cfg.DBDriver, cfg.DBDSN, nil)
			if err != nil {
				return err
			}
			storage := data.NewStorageManager(db)
			defer storage.Close()

			if err := data.Migrate(db); err != nil {
				return err
			}
			fmt.Printf("Schema up to date (%s)\n", cfg.DBDriver)
			return nil
		},
	}
	cmd.Flags().StringVarP(&folder, "config", "c", ".", "folder holding the .cfg file")
	return cmd
}
