// Command resetdb empties the business tables for a test environment and
// recreates a single administrator. The page catalog is kept.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"voyage-backend/internal/auth"
	"voyage-backend/internal/config"
	"voyage-backend/internal/db"
	"voyage-backend/internal/logger"
	"voyage-backend/internal/models"
)

// pages is not listed: the catalog survives a reset
var tables = []string{
	"facture_lignes",
	"factures",
	"paiements",
	"dossiers_voyage",
	"clients",
	"user_page_permissions",
	"users",
}

func main() {
	email := flag.String("admin-email", "admin@agence.local", "Email of the recreated administrator")
	yes := flag.Bool("yes", false, "Skip the confirmation prompt")
	flag.Parse()

	password := os.Getenv("RESET_ADMIN_PASSWORD")
	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "RESET_ADMIN_PASSWORD must be set (8 characters minimum)")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.Server.Env, cfg.Server.LogLevel)

	if !*yes {
		fmt.Printf("This deletes every client, dossier, facture, paiement and user in %q.\n", cfg.Database.Name)
		fmt.Print("Type 'yes' to confirm: ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			fmt.Println("Reset cancelled.")
			return
		}
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer pool.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("hash admin password")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+strings.Join(tables, ", ")+" RESTART IDENTITY CASCADE"); err != nil {
		log.Fatal().Err(err).Msg("truncate tables")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (nom, prenom, email, password_hash, role, permissions, is_active)
		VALUES ($1, $2, $3, $4, $5, '[]'::jsonb, TRUE)`,
		"Administrateur", "", strings.ToLower(*email), hash, models.RoleAdmin,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("create admin user")
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("commit")
	}

	log.Info().Strs("tables", tables).Str("admin", *email).Msg("database reset")
}
