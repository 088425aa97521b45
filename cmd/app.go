package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"evidence-hub/domain"
	"evidence-hub/importer"
	"evidence-hub/infrastructure"
)

// app holds the wiring shared by every command that touches the database.
type app struct {
	cfg          infrastructure.Config
	log          *logrus.Logger
	db           *gorm.DB
	evidence     *infrastructure.EvidenceRepository
	integrations *infrastructure.IntegrationRepository
	roles        *infrastructure.RoleRepository
	g2           *infrastructure.G2Client
	defaults     importer.Defaults
	runner       *importer.Runner
}

func newApp() (*app, error) {
	cfg, err := infrastructure.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	product := domain.ProductType(cfg.Import.Product)
	if !product.Valid() {
		return nil, fmt.Errorf("import.product %q is not a known product", cfg.Import.Product)
	}
	log := infrastructure.NewLogger(cfg.Log)

	db, err := infrastructure.NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := infrastructure.SeedAdmin(db, cfg.Bootstrap.AdminUserID, log); err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			sqlDB.Close()
		}
		return nil, err
	}

	a := &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		evidence:     infrastructure.NewEvidenceRepository(db),
		integrations: infrastructure.NewIntegrationRepository(db),
		roles:        infrastructure.NewRoleRepository(db),
		defaults:     importer.DefaultDefaults(),
	}
	a.defaults.Product = product

	limiter := infrastructure.NewHostLimiter(cfg.Remote.RequestsPerSecond, cfg.Remote.Burst)
	a.g2 = infrastructure.NewG2Client(cfg.Remote, limiter, log)
	capterra := infrastructure.NewCapterraClient(cfg.Remote, limiter, log)
	fetcher := importer.NewRemoteFetcher(a.g2, capterra, a.integrations, a.defaults, log)

	a.runner = importer.NewRunner(a.evidence, a.integrations, importer.NewNormalizer(a.defaults), log,
		importer.WithFetcher(fetcher),
		importer.WithMaxErrors(cfg.Import.MaxErrors),
	)
	return a, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
