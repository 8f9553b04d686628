package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/backend-agua/internal/catalog"
	"github.com/noah-isme/backend-agua/internal/config"
	"github.com/noah-isme/backend-agua/internal/db"
	"github.com/noah-isme/backend-agua/internal/obs"
	"github.com/noah-isme/backend-agua/internal/user"
)

// Seeds the database with the initial admin account and a few sample
// products. Safe to run repeatedly: existing rows are left alone.
func main() {
	cfg := config.MustLoad()
	logger := obs.NewLogger("console", "info").With().Str("component", "seeder").Logger()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, "agua-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	users := &user.Service{Store: &user.PGStore{Pool: pool}}
	adminUsername := envOrDefault("SEED_ADMIN_USERNAME", "admin")
	if _, err := users.GetByUsername(ctx, adminUsername); err != nil {
		created, err := users.Create(ctx, user.Input{
			Username: adminUsername,
			Password: envOrDefault("SEED_ADMIN_PASSWORD", "change-me-now"),
			FullName: "Administrator",
			Role:     user.RoleAdmin,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("create admin user")
		}
		logger.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("admin user created")
	} else {
		logger.Info().Str("username", adminUsername).Msg("admin user already present")
	}

	products := &catalog.Service{Store: &catalog.PGStore{Pool: pool}}
	existing, _, err := products.List(ctx, catalog.ListParams{Page: 1, PerPage: 1})
	if err != nil {
		logger.Fatal().Err(err).Msg("list products")
	}
	if len(existing) > 0 {
		logger.Info().Msg("products already present, skipping samples")
		return
	}

	samples := []catalog.ProductInput{
		{Name: "Agua Mineral 20L", Type: "water", PriceRefill: 500, PriceFull: 2500, StockFull: 50},
		{Name: "Gas 13kg", Type: "gas", PriceRefill: 9500, PriceFull: 26000, StockFull: 20},
		{Name: "Carvao 3kg", Type: "coal", PriceFull: 1500, StockFull: 30},
	}
	for _, sample := range samples {
		created, err := products.Create(ctx, sample)
		if err != nil {
			logger.Fatal().Err(err).Str("name", sample.Name).Msg("create sample product")
		}
		logger.Info().Int64("product_id", created.ID).Str("name", created.Name).Msg("sample product created")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
