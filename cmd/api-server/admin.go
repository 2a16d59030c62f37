package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"redeploy/db"
	"redeploy/db/migrations"
	"redeploy/internal/auth"
	"redeploy/internal/seed"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := migrations.Run(ctx, conn.DB, a.cfg.DBDriver, a.log); err != nil {
				return err
			}
			version, err := migrations.Version(ctx, conn.DB, a.cfg.DBDriver)
			if err != nil {
				return err
			}
			a.log.Info("schema is up to date", zap.Int64("version", version))
			return nil
		},
	}
}

func (a *app) seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data and demo records (idempotent)",
		Long:  "Loads organizations, functional profiles, agents and position requests. The admin user is created only when SEED_ADMIN_PASSWORD is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fixture, err := seed.Load(file)
			if err != nil {
				return err
			}

			var adminHash string
			if password := os.Getenv("SEED_ADMIN_PASSWORD"); password != "" {
				if adminHash, err = auth.HashPassword(password); err != nil {
					return err
				}
			}

			conn, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrations.Run(ctx, conn.DB, a.cfg.DBDriver, a.log); err != nil {
				return err
			}

			_, err = seed.Apply(ctx, db.NewStorage(conn), fixture, adminHash, a.log)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture (defaults to the built-in data set)")
	return cmd
}

// hashPasswordCommand печатает bcrypt-хеш пароля из stdin; конфиг и база не нужны.
func hashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return printHash(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func printHash(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return errors.New("no password on stdin")
	}
	hash, err := auth.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
