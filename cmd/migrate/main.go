package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orghub/orghub/internal/config"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	_ = godotenv.Load()

	var (
		command = flag.String("command", "up", "Migration command (up, down, force)")
		source  = flag.String("source", "file://migrations", "Migration source URL")
		version = flag.Int("version", 0, "Target version for the force command")
	)
	flag.Parse()

	// Dummy JWT secret: the migrator only needs the database section, but
	// config.Load validates the whole thing.
	if os.Getenv("ORGHUB_JWT_SECRET") == "" {
		os.Setenv("ORGHUB_JWT_SECRET", "migrate-only-secret-padding-32-ch!")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	pgxCfg, err := pgx.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse DSN")
	}
	db := stdlib.OpenDB(*pgxCfg)
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create migration driver")
	}

	m, err := migrate.NewWithDatabaseInstance(*source, "postgres", driver)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create migrator")
	}

	switch *command {
	case "up":
		log.Info().Msg("applying migrations")
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
		log.Info().Msg("migrations applied")
	case "down":
		log.Info().Msg("reverting migrations")
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("failed to revert migrations")
		}
		log.Info().Msg("migrations reverted")
	case "force":
		log.Info().Int("version", *version).Msg("forcing migration version")
		if err := m.Force(*version); err != nil {
			log.Fatal().Err(err).Msg("failed to force migration version")
		}
		log.Info().Msg("migration version forced")
	default:
		log.Fatal().Msgf("unknown command: %s", *command)
	}
}
