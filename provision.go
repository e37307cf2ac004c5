package main

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"projectboard/config"
	"projectboard/domain"
	"projectboard/metrics"
	"projectboard/storage"
	"projectboard/store"
)

func provisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the storage tables and queues",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageBackend != config.BackendTable {
				return errors.New("provision requires STORAGE_BACKEND=table")
			}
			log.Info("storage provisioning starting")
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := storage.Provision(ctx, cfg.StorageConnectionString, cfg.Tables(), cfg.Queues()); err != nil {
				return err
			}
			log.Info("storage provisioning complete")
			return nil
		},
	}
}

// seedUser attributes categories created by the seed command.
var seedUser = domain.User{UID: "system", DisplayName: "Seeder"}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate the category collection with the built-in taxonomy when it is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := log.StandardLogger()
			backend, rc, err := openBackend(cfg, logger)
			if err != nil {
				return err
			}
			if rc != nil {
				defer rc.Close()
			}
			opts, err := sessionOptions(cfg, rc, logger)
			if err != nil {
				return err
			}
			var syncOpts []store.Option
			if opts.Events != nil {
				syncOpts = append(syncOpts, store.WithEvents(opts.Events, seedUser.UID))
			}
			syncer := store.NewSyncer(store.NewStatus(), logger, syncOpts...)
			taxonomy := store.NewTaxonomyStore(backend.Categories, syncer, seedUser, opts.Guard)
			if err := taxonomy.EnsureSeeded(cmd.Context()); err != nil {
				return err
			}
			totals := metrics.TaxonomyTotals(taxonomy.Categories())
			logger.WithFields(log.Fields{
				"categories":    totals.Categories,
				"subcategories": totals.Subcategories,
				"templates":     totals.Templates,
			}).Info("taxonomy ready")
			return nil
		},
	}
}
