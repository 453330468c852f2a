// Package storage provides persisted implementations of core.Storage: a
// BuntDB JSON document store and a SQL alternative backed by GORM.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/buntdb"

	"github.com/coinward/coinward/core"
)

const (
	coinsKey    = "coins"
	settingsKey = "settings"
	userPrefix  = "user:"
)

// BuntStorage implements core.Storage using BuntDB. The registry, the bot
// settings and each user ledger live under their own keys; Save rewrites all
// of them in a single transaction so a reader never observes a partial save.
type BuntStorage struct {
	db *buntdb.DB
}

// BuntConfig holds configuration options for BuntDB.
type BuntConfig struct {
	SyncPolicy buntdb.SyncPolicy
}

// DefaultBuntConfig returns the default configuration for BuntDB.
func DefaultBuntConfig() BuntConfig {
	return BuntConfig{SyncPolicy: buntdb.EverySecond}
}

// NewFromMemory creates an in-memory storage with default configuration.
func NewFromMemory() (core.Storage, error) {
	return NewBuntStorage(":memory:", DefaultBuntConfig())
}

// NewFromFile creates a file-based storage with default configuration.
func NewFromFile(file string) (core.Storage, error) {
	return NewBuntStorage(file, DefaultBuntConfig())
}

// NewBuntStorage creates a BuntDB storage instance with the given configuration.
func NewBuntStorage(sourceFile string, config BuntConfig) (core.Storage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{SyncPolicy: config.SyncPolicy}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	return &BuntStorage{db: db}, nil
}

// Load assembles the full document. Missing keys yield an empty document
// with default settings, so a fresh database is immediately usable.
func (b *BuntStorage) Load(_ context.Context) (*core.Document, error) {
	doc := core.NewDocument()

	err := b.db.View(func(tx *buntdb.Tx) error {
		if value, err := tx.Get(coinsKey); err == nil {
			if err := json.Unmarshal([]byte(value), &doc.Coins); err != nil {
				return fmt.Errorf("failed to unmarshal coin registry: %w", err)
			}
		} else if err != buntdb.ErrNotFound {
			return err
		}

		if value, err := tx.Get(settingsKey); err == nil {
			if err := json.Unmarshal([]byte(value), &doc.Settings); err != nil {
				return fmt.Errorf("failed to unmarshal settings: %w", err)
			}
		} else if err != buntdb.ErrNotFound {
			return err
		}

		var iterErr error
		err := tx.AscendKeys(userPrefix+"*", func(key, value string) bool {
			ledger := core.NewUserLedger()
			if iterErr = json.Unmarshal([]byte(value), ledger); iterErr != nil {
				iterErr = fmt.Errorf("failed to unmarshal user %s: %w", key, iterErr)
				return false
			}
			doc.Users[strings.TrimPrefix(key, userPrefix)] = ledger
			return true
		})
		if err != nil {
			return err
		}
		return iterErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger document: %w", err)
	}

	return doc, nil
}

// Save replaces the persisted document: every key is rewritten and user keys
// no longer present in the document are deleted, all in one transaction.
func (b *BuntStorage) Save(_ context.Context, doc *core.Document) error {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		coins, err := json.Marshal(doc.Coins)
		if err != nil {
			return fmt.Errorf("failed to marshal coin registry: %w", err)
		}
		if _, _, err := tx.Set(coinsKey, string(coins), nil); err != nil {
			return err
		}

		settings, err := json.Marshal(doc.Settings)
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		if _, _, err := tx.Set(settingsKey, string(settings), nil); err != nil {
			return err
		}

		var stale []string
		err = tx.AscendKeys(userPrefix+"*", func(key, _ string) bool {
			if _, ok := doc.Users[strings.TrimPrefix(key, userPrefix)]; !ok {
				stale = append(stale, key)
			}
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range stale {
			if _, err := tx.Delete(key); err != nil {
				return err
			}
		}

		for userID, ledger := range doc.Users {
			content, err := json.Marshal(ledger)
			if err != nil {
				return fmt.Errorf("failed to marshal user %s: %w", userID, err)
			}
			if _, _, err := tx.Set(userPrefix+userID, string(content), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save ledger document: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
