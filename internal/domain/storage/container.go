package storage

import (
	"context"
	"fmt"

	"bizboost/internal/db"
	"bizboost/internal/domain/businesses"

	"go.uber.org/zap"
)

type Container struct {
	file       *db.FileDB
	Businesses businesses.Store
}

// NewContainer opens the data file and loads the directory from it.
func NewContainer(ctx context.Context, path string, logger *zap.SugaredLogger, opts businesses.Options) (*Container, error) {
	file, err := db.New(path, logger)
	if err != nil {
		return nil, err
	}

	repo, err := businesses.Load(ctx, file, logger, opts)
	if err != nil {
		return nil, fmt.Errorf("storage container: %w", err)
	}

	return &Container{
		file:       file,
		Businesses: repo,
	}, nil
}

func (c *Container) DataFile() string {
	return c.file.Path()
}
