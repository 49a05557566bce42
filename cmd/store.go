package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"github.com/sw33tLie/spoilerguard/internal/utils"
	"github.com/sw33tLie/spoilerguard/pkg/registry"
	"github.com/sw33tLie/spoilerguard/pkg/storage"
)

// openRegistry opens the configured database and returns the registry on top
// of it, with install-time defaults written on first use. The caller closes
// the returned DB.
func openRegistry(ctx context.Context) (*storage.DB, *registry.Registry, error) {
	absPath, err := utils.GetAbsDBPath(viper.GetString("dbpath"))
	if err != nil {
		return nil, nil, fmt.Errorf("could not resolve database path: %w", err)
	}
	if err := utils.EnsureDBDir(absPath); err != nil {
		return nil, nil, fmt.Errorf("could not create database directory: %w", err)
	}

	db, err := storage.Open(absPath, storage.DefaultDBTimeout)
	if err != nil {
		return nil, nil, err
	}
	lock, err := utils.NewStoreLock(absPath)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	reg := registry.New(db, lock)
	if err := reg.Init(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("could not initialise registry: %w", err)
	}
	utils.Log.Debugf("Using database %s", absPath)
	return db, reg, nil
}
