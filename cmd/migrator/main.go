package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/config"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, or version")
		dir     = flag.String("dir", "db/migrations", "Directory containing migration files")
	)
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	// The migrator shares the API's PG_* environment contract but needs
	// nothing beyond the database block.
	var pg config.Postgres
	if err := env.ParseWithOptions(&pg, env.Options{RequiredIfNoDef: true}); err != nil {
		log.Fatal().Err(err).Msg("invalid database configuration")
	}

	migrationDir, err := filepath.Abs(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("failed to resolve migration directory")
	}
	if _, err := os.Stat(migrationDir); os.IsNotExist(err) {
		log.Fatal().Str("dir", migrationDir).Msg("migration directory does not exist")
	}

	db, err := sql.Open("pgx", pg.ConnString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database connection")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	log.Info().
		Str("host", pg.Host).
		Str("database", pg.Database).
		Str("migration_dir", migrationDir).
		Msg("connected to database")

	goose.SetTableName("goose_db_version")

	if err := runCommand(db, *command, migrationDir); err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("migration command failed")
	}
}

func runCommand(db *sql.DB, command, dir string) error {
	switch command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
		return nil
	case "down":
		if err := goose.Down(db, dir); err != nil {
			return err
		}
		log.Info().Msg("last migration rolled back")
		return nil
	case "status":
		return goose.Status(db, dir)
	case "version":
		version, err := goose.GetDBVersion(db)
		if err != nil {
			return err
		}
		log.Info().Int64("version", version).Msg("current schema version")
		return nil
	default:
		return fmt.Errorf("unknown command %q (use: up, down, status, or version)", command)
	}
}
