package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// gcDiscardRatio is the share of stale data a value log file needs before GC rewrites it
const gcDiscardRatio = 0.5

// BadgerDB owns the badgerhold store shared by every storage
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.BadgerConfig
}

// NewBadgerDB opens the store described by config. A persistent store is
// wiped first when ResetOnStartup is set.
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil
	options.SyncWrites = config.SyncWrites

	if config.InMemory {
		options.InMemory = true
		options.Dir = ""
		options.ValueDir = ""
	} else {
		if err := prepareDir(logger, config); err != nil {
			return nil, err
		}
		options.Dir = config.Path
		options.ValueDir = config.Path
	}

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().
		Str("path", config.Path).
		Bool("in_memory", config.InMemory).
		Bool("sync_writes", config.SyncWrites).
		Msg("Badger database opened")

	return &BadgerDB{
		store:  store,
		logger: logger,
		config: config,
	}, nil
}

func prepareDir(logger arbor.ILogger, config *common.BadgerConfig) error {
	if config.Path == "" {
		return fmt.Errorf("badger path is required unless in_memory is set")
	}

	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Info().Str("path", config.Path).Msg("Resetting database (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				return fmt.Errorf("failed to reset database directory: %w", err)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// RunGC rewrites value log files until badger reports nothing left to
// collect. In-memory stores have no value log.
func (b *BadgerDB) RunGC() (int, error) {
	if b.config == nil || b.config.InMemory {
		return 0, nil
	}

	rewritten := 0
	for {
		err := b.store.Badger().RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badgerdb.ErrNoRewrite) {
			return rewritten, nil
		}
		if err != nil {
			return rewritten, err
		}
		rewritten++
	}
}

// StartGC runs value log GC every GCInterval until ctx is done
func (b *BadgerDB) StartGC(ctx context.Context) {
	if b.config == nil || b.config.InMemory || b.config.GCInterval <= 0 {
		return
	}

	common.SafeGoWithContext(ctx, b.logger, "badger-gc", func() {
		ticker := time.NewTicker(b.config.GCInterval.Duration())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := b.RunGC()
				if err != nil {
					b.logger.Warn().Err(err).Msg("Badger value log GC failed")
					continue
				}
				if n > 0 {
					b.logger.Debug().Int("files", n).Msg("Badger value log GC rewrote files")
				}
			}
		}
	})
}

// Close closes the database connection
func (b *BadgerDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
