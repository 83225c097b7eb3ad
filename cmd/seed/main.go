package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/JoseGikaara/instantsite-sub000/internal/config"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	pg "github.com/JoseGikaara/instantsite-sub000/internal/infra/db/postgres"
	"github.com/JoseGikaara/instantsite-sub000/internal/infra/logging"
	"github.com/JoseGikaara/instantsite-sub000/internal/usecase"
)

func main() {
	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	packageRepo := pg.NewCreditPackageRepo(pool)

	// If packages already exist, do nothing
	packages, err := packageRepo.ListActive(ctx, nil)
	if err != nil {
		log.Fatalf("list packages: %v", err)
	}
	if len(packages) > 0 {
		fmt.Printf("%d packages already present. No changes.\n", len(packages))
		for _, p := range packages {
			fmt.Printf("  - %s (credits=%d, price=%d cents)\n", p.Name, p.Credits, p.PriceCents)
		}
		return
	}

	// Seed the standard package catalog
	seed := []struct {
		Name  string
		Cred  int
		Price int
	}{
		{"Starter", 25, 9_00},
		{"Growth", 100, 29_00},
		{"Agency", 500, 99_00},
	}

	seeded := make([]*model.CreditPackage, 0, len(seed))
	for _, s := range seed {
		p := &model.CreditPackage{
			ID:         uuid.NewString(),
			Name:       s.Name,
			Credits:    s.Cred,
			PriceCents: s.Price,
			IsActive:   true,
			CreatedAt:  time.Now(),
		}
		if err := packageRepo.Save(ctx, nil, p); err != nil {
			log.Fatalf("create package %q: %v", s.Name, err)
		}
		seeded = append(seeded, p)
		fmt.Printf("seeded: %s (id=%s, credits=%d, price=%d cents)\n", p.Name, p.ID, p.Credits, p.PriceCents)
	}

	// Mint a handful of Starter codes so the redeem flow is testable out of
	// the box.
	logger := logging.New(cfg.Log, true)
	agentRepo := pg.NewAgentRepo(pool)
	entryRepo := pg.NewCreditEntryRepo(pool)
	codeRepo := pg.NewRedemptionCodeRepo(pool)
	txManager := pg.NewTxManager(pool)
	ledgerUC := usecase.NewLedgerUseCase(agentRepo, entryRepo, txManager, logger)
	redeemUC := usecase.NewRedemptionUseCase(codeRepo, packageRepo, ledgerUC, txManager, logger)

	codes, err := redeemUC.MintCodes(ctx, seeded[0].ID, 5, nil)
	if err != nil {
		log.Fatalf("mint codes: %v", err)
	}
	fmt.Println("starter codes:")
	for _, c := range codes {
		fmt.Printf("  %s\n", c)
	}

	fmt.Println("✅ Seeding complete.")
}
