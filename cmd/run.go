package main

import (
	"math/big"

	"github.com/urfave/cli/v2"

	"github.com/xayanetwork/chi-claim-service/authbridge"
	"github.com/xayanetwork/chi-claim-service/claimctrl"
	"github.com/xayanetwork/chi-claim-service/claimregistry"
	"github.com/xayanetwork/chi-claim-service/config"
	"github.com/xayanetwork/chi-claim-service/db"
	"github.com/xayanetwork/chi-claim-service/etherman"
	"github.com/xayanetwork/chi-claim-service/log"
	"github.com/xayanetwork/chi-claim-service/metrics"
	"github.com/xayanetwork/chi-claim-service/server"
)

func start(ctx *cli.Context) error {
	configFilePath := ctx.String(flagCfg)
	network := ctx.String(flagNetwork)
	c, err := config.Load(configFilePath, network)
	if err != nil {
		return err
	}
	setupLog(c.Log)

	err = db.RunMigrations(c.Database)
	if err != nil {
		log.Error(err)
		return err
	}

	storage, err := db.NewStorage(c.Database)
	if err != nil {
		log.Error(err)
		return err
	}

	ledger, err := etherman.NewClient(ctx.Context, c.Etherman, c.NetworkConfig.WCHITokenAddress)
	if err != nil {
		log.Error(err)
		return err
	}

	registry := claimregistry.NewRegistry(c.NetworkConfig.SnapshotRootHash, storage, ledger)
	domain := authbridge.Domain{
		ChainID:           new(big.Int).SetUint64(c.NetworkConfig.ChainID),
		VerifyingContract: c.NetworkConfig.VerifyingContract,
	}
	controller, err := claimctrl.NewClaimController(c.NetworkConfig.AdminAddress, registry, domain)
	if err != nil {
		log.Error(err)
		return err
	}

	log.Infof("snapshot root %s, domain separator %s, pool account %s",
		registry.Root(), controller.DomainSeparator(), ledger.PoolAccount())

	go metrics.StartMetricsHTTPServer(c.Metrics)

	return server.RunServer(c.ClaimServer, registry, controller)
}

func setupLog(c log.Config) {
	log.Init(c)
}
