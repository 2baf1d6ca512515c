package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"olympiad-quiz-service/internal/config"
	pgstore "olympiad-quiz-service/internal/infra/postgres"
	"olympiad-quiz-service/internal/seed"
)

// NewSeedCmd loads the embedded starter questions into the Postgres bank.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starter question bank into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	questions, err := seed.Questions()
	if err != nil {
		return err
	}
	if err := pgstore.NewSeedLoader(pool).Store(ctx, questions); err != nil {
		return err
	}
	log.Printf("seeded %d questions", len(questions))
	return nil
}
