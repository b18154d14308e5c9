package db

import (
	"github.com/xayanetwork/chi-claim-service/claimregistry"
	"github.com/xayanetwork/chi-claim-service/db/pgstorage"
	"github.com/xayanetwork/chi-claim-service/gerror"
)

// NewStorage creates the claim ledger storage for the configured backend.
func NewStorage(cfg Config) (claimregistry.ClaimStore, error) {
	if cfg.Database == "postgres" {
		return pgstorage.NewPostgresStorage(pgstorage.Config{
			Name:     cfg.Name,
			User:     cfg.User,
			Password: cfg.Password,
			Host:     cfg.Host,
			Port:     cfg.Port,
			MaxConns: cfg.MaxConns,
		})
	}
	return nil, gerror.ErrStorageNotRegister
}

// RunMigrations will execute pending migrations if needed to keep
// the database updated with the latest changes
func RunMigrations(cfg Config) error {
	config := pgstorage.Config{
		Name:     cfg.Name,
		User:     cfg.User,
		Password: cfg.Password,
		Host:     cfg.Host,
		Port:     cfg.Port,
	}
	return pgstorage.RunMigrations(config)
}
