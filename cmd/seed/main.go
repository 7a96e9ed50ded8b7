// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/catalogs/unit"
	"inventra/internal/domain/catalogs/user"
	"inventra/internal/infrastructure/storage/postgres"
	"inventra/internal/infrastructure/storage/postgres/catalog_repo"
	"inventra/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	s := &seeder{
		txm:      postgres.NewTxManager(pool),
		log:      log,
		branches: map[string]*branch.Branch{},
		units:    map[string]*unit.Unit{},
	}
	s.branchRepo = catalog_repo.NewBranchRepo(s.txm)
	s.unitRepo = catalog_repo.NewUnitRepo(s.txm)
	s.productRepo = catalog_repo.NewProductRepo(s.txm)
	s.userRepo = catalog_repo.NewUserRepo(s.txm)

	if err := s.seedBranches(ctx); err != nil {
		log.Fatalw("failed to seed branches", "error", err)
	}
	if err := s.seedUnits(ctx); err != nil {
		log.Fatalw("failed to seed units", "error", err)
	}
	if err := s.seedUsers(ctx); err != nil {
		log.Fatalw("failed to seed users", "error", err)
	}
	if err := s.seedProducts(ctx); err != nil {
		log.Fatalw("failed to seed products", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := s.seedDemoProducts(ctx); err != nil {
			log.Fatalw("failed to seed demo products", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

type seeder struct {
	txm         *postgres.TxManager
	log         *logger.Logger
	branchRepo  branch.Repository
	unitRepo    unit.Repository
	productRepo product.Repository
	userRepo    user.Repository

	branches map[string]*branch.Branch
	units    map[string]*unit.Unit
}

func (s *seeder) seedBranches(ctx context.Context) error {
	seeds := []struct {
		code, name, currency string
	}{
		{"MAIN", "Main store", "USD"},
		{"WH", "Central warehouse", "USD"},
	}

	for _, b := range seeds {
		existing, err := s.branchRepo.GetByCode(ctx, b.code)
		if err == nil {
			s.branches[b.code] = existing
			s.log.Infow("branch already exists", "code", b.code)
			continue
		}
		if !apperror.IsNotFound(err) {
			return fmt.Errorf("check branch %s: %w", b.code, err)
		}

		br := branch.New(b.code, b.name, b.currency)
		if err := s.branchRepo.Create(ctx, br); err != nil {
			return fmt.Errorf("create branch %s: %w", b.code, err)
		}
		s.branches[b.code] = br
		s.log.Infow("branch created", "code", b.code, "id", br.ID)
	}
	return nil
}

func (s *seeder) seedUnits(ctx context.Context) error {
	seeds := []struct {
		code, name, symbol string
		factor             string
	}{
		{"PCS", "Piece", "pcs", ""},
		{"BOX12", "Box of 12", "box", "12"},
		{"KG", "Kilogram", "kg", "1"},
		{"G", "Gram", "g", "0.001"},
	}

	for _, u := range seeds {
		existing, err := s.unitRepo.GetByCode(ctx, u.code)
		if err == nil {
			s.units[u.code] = existing
			s.log.Infow("unit already exists", "code", u.code)
			continue
		}
		if !apperror.IsNotFound(err) {
			return fmt.Errorf("check unit %s: %w", u.code, err)
		}

		un := unit.New(u.code, u.name, u.symbol)
		if u.factor != "" {
			f, err := decimal.NewFromString(u.factor)
			if err != nil {
				return fmt.Errorf("parse factor for unit %s: %w", u.code, err)
			}
			un.Factor = &f
		}
		if err := s.unitRepo.Create(ctx, un); err != nil {
			return fmt.Errorf("create unit %s: %w", u.code, err)
		}
		s.units[u.code] = un
		s.log.Infow("unit created", "code", u.code, "id", un.ID)
	}
	return nil
}

func (s *seeder) seedUsers(ctx context.Context) error {
	seeds := []struct {
		code, name, email string
		branchCode        string
	}{
		{"ADMIN", "System Admin", "admin@inventra.local", ""},
		{"CASHIER1", "Main Cashier", "cashier@inventra.local", "MAIN"},
	}

	for _, u := range seeds {
		_, err := s.userRepo.GetByCode(ctx, u.code)
		if err == nil {
			s.log.Infow("user already exists", "code", u.code)
			continue
		}
		if !apperror.IsNotFound(err) {
			return fmt.Errorf("check user %s: %w", u.code, err)
		}

		usr := user.New(u.code, u.name, u.email)
		if u.branchCode != "" {
			if br, ok := s.branches[u.branchCode]; ok {
				usr.BranchID = &br.ID
			}
		}
		if err := s.userRepo.Create(ctx, usr); err != nil {
			return fmt.Errorf("create user %s: %w", u.code, err)
		}
		s.log.Infow("user created", "code", u.code, "id", usr.ID)
	}
	return nil
}

func (s *seeder) seedProducts(ctx context.Context) error {
	pcs, ok := s.units["PCS"]
	if !ok {
		return fmt.Errorf("PCS unit missing")
	}
	box := s.units["BOX12"]

	seeds := []struct {
		code, name, sku string
	}{
		{"WATER05", "Water 0.5L", "SKU-WATER05"},
		{"COLA033", "Cola 0.33L", "SKU-COLA033"},
	}

	for _, p := range seeds {
		if _, err := s.productRepo.GetByCode(ctx, p.code); err == nil {
			s.log.Infow("product already exists", "code", p.code)
			continue
		} else if !apperror.IsNotFound(err) {
			return fmt.Errorf("check product %s: %w", p.code, err)
		}
		prod := product.New(p.code, p.name, p.sku, pcs.ID)
		if err := s.productRepo.Create(ctx, prod); err != nil {
			return fmt.Errorf("create product %s: %w", p.code, err)
		}

		// Every demo product sells by the dozen as well.
		if box != nil {
			conv := &product.Conversion{
				ID:         id.New(),
				ProductID:  prod.ID,
				UnitID:     box.ID,
				Multiplier: decimal.NewFromInt(12),
			}
			if err := s.productRepo.SaveConversion(ctx, conv); err != nil {
				return fmt.Errorf("save conversion for %s: %w", p.code, err)
			}
		}
		s.log.Infow("product created", "code", p.code, "id", prod.ID)
	}
	return nil
}

// seedDemoProducts bulk-loads a large synthetic catalog over COPY so local
// environments have enough data for list pagination and balance queries.
func (s *seeder) seedDemoProducts(ctx context.Context) error {
	pcs, ok := s.units["PCS"]
	if !ok {
		return fmt.Errorf("PCS unit missing")
	}

	const count = 1000
	inserter := postgres.NewBatchInserter(s.txm)
	columns := []string{"id", "deletion_mark", "version", "code", "name", "sku", "base_unit_id", "price", "is_active"}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		rows := make(chan []any, 100)
		go func() {
			defer close(rows)
			for i := 1; i <= count; i++ {
				rows <- []any{
					id.New(),
					false,
					1,
					fmt.Sprintf("DEMO%04d", i),
					fmt.Sprintf("Demo product %d", i),
					fmt.Sprintf("SKU-DEMO%04d", i),
					pcs.ID,
					int64(100 + i),
					true,
				}
			}
		}()

		inserted, err := inserter.CopyFromRows(ctx, "cat_products", columns, rows)
		if err != nil {
			return fmt.Errorf("copy demo products: %w", err)
		}
		s.log.Infow("demo products inserted", "count", inserted)
		return nil
	})
}
