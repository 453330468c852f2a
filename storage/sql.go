package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coinward/coinward/core"
)

// SQLStorage implements core.Storage on a relational database via GORM. Save
// follows the same whole-document discipline as the BuntDB backend: all rows
// are replaced inside one transaction.
type SQLStorage struct {
	db *gorm.DB
}

// SQLConfig holds the connection pool configuration.
type SQLConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultSQLConfig returns a default configuration for SQL connections.
func DefaultSQLConfig() SQLConfig {
	return SQLConfig{
		MaxIdleConns:    5,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

type coinRow struct {
	CoinID string `gorm:"primaryKey"`
	Name   string
}

type settingsRow struct {
	ID            uint `gorm:"primaryKey"`
	ProfitBandPct string
}

type alertRow struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	UserID string `gorm:"index"`
	CoinID string
	Above  *string
	Below  *string
}

type lotRow struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	UserID       string `gorm:"index"`
	CoinID       string
	Seq          int
	InvestedUSD  string
	PricePerUnit string
	Quantity     string
	CreatedAt    time.Time
	Notified     bool
}

// NewFromSQLite creates a SQLite-backed storage instance.
func NewFromSQLite(dbPath string, config SQLConfig, opts ...gorm.Option) (core.Storage, error) {
	return newFromSQL(sqlite.Open(dbPath), config, opts...)
}

func newFromSQL(dialect gorm.Dialector, config SQLConfig, opts ...gorm.Option) (core.Storage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := db.AutoMigrate(&coinRow{}, &settingsRow{}, &alertRow{}, &lotRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// Load assembles the document from the coin, settings, alert and lot tables.
func (s *SQLStorage) Load(ctx context.Context) (*core.Document, error) {
	doc := core.NewDocument()
	db := s.db.WithContext(ctx)

	var coins []coinRow
	if err := db.Find(&coins).Error; err != nil {
		return nil, fmt.Errorf("failed to load coin registry: %w", err)
	}
	for _, row := range coins {
		doc.Coins[row.CoinID] = row.Name
	}

	var settings []settingsRow
	if err := db.Limit(1).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if len(settings) > 0 {
		band, err := decimal.NewFromString(settings[0].ProfitBandPct)
		if err != nil {
			return nil, fmt.Errorf("corrupt profit band value: %w", err)
		}
		doc.Settings.ProfitBandPct = band
	}

	var alerts []alertRow
	if err := db.Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}
	for _, row := range alerts {
		alert := &core.ThresholdAlert{}
		if row.Above != nil {
			value, err := decimal.NewFromString(*row.Above)
			if err != nil {
				return nil, fmt.Errorf("corrupt alert value: %w", err)
			}
			alert.Above = &value
		}
		if row.Below != nil {
			value, err := decimal.NewFromString(*row.Below)
			if err != nil {
				return nil, fmt.Errorf("corrupt alert value: %w", err)
			}
			alert.Below = &value
		}
		doc.User(row.UserID).Alerts[row.CoinID] = alert
	}

	var lotRows []lotRow
	if err := db.Order("user_id, coin_id, seq").Find(&lotRows).Error; err != nil {
		return nil, fmt.Errorf("failed to load lots: %w", err)
	}
	for _, row := range lotRows {
		lot, err := rowToLot(row)
		if err != nil {
			return nil, err
		}
		ledger := doc.User(row.UserID)
		ledger.Lots[row.CoinID] = append(ledger.Lots[row.CoinID], lot)
	}

	return doc, nil
}

// Save replaces all rows with the document's content in one transaction.
func (s *SQLStorage) Save(ctx context.Context, doc *core.Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&coinRow{}, &settingsRow{}, &alertRow{}, &lotRow{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear table: %w", err)
			}
		}

		for coinID, name := range doc.Coins {
			if err := tx.Create(&coinRow{CoinID: coinID, Name: name}).Error; err != nil {
				return fmt.Errorf("failed to save coin %s: %w", coinID, err)
			}
		}

		settings := settingsRow{ID: 1, ProfitBandPct: doc.Settings.ProfitBandPct.String()}
		if err := tx.Create(&settings).Error; err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		for userID, ledger := range doc.Users {
			for coinID, alert := range ledger.Alerts {
				row := alertRow{UserID: userID, CoinID: coinID}
				if alert.Above != nil {
					value := alert.Above.String()
					row.Above = &value
				}
				if alert.Below != nil {
					value := alert.Below.String()
					row.Below = &value
				}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("failed to save alert: %w", err)
				}
			}
			for coinID, lots := range ledger.Lots {
				for seq, lot := range lots {
					row := lotRow{
						UserID:       userID,
						CoinID:       coinID,
						Seq:          seq,
						InvestedUSD:  lot.InvestedUSD.String(),
						PricePerUnit: lot.PricePerUnit.String(),
						Quantity:     lot.Quantity.String(),
						CreatedAt:    lot.CreatedAt,
						Notified:     lot.Notified,
					}
					if err := tx.Create(&row).Error; err != nil {
						return fmt.Errorf("failed to save lot: %w", err)
					}
				}
			}
		}

		return nil
	})
}

// Close closes the underlying connection pool.
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func rowToLot(row lotRow) (*core.Lot, error) {
	invested, err := decimal.NewFromString(row.InvestedUSD)
	if err != nil {
		return nil, fmt.Errorf("corrupt lot invested value: %w", err)
	}
	price, err := decimal.NewFromString(row.PricePerUnit)
	if err != nil {
		return nil, fmt.Errorf("corrupt lot price value: %w", err)
	}
	quantity, err := decimal.NewFromString(row.Quantity)
	if err != nil {
		return nil, fmt.Errorf("corrupt lot quantity value: %w", err)
	}
	return &core.Lot{
		InvestedUSD:  invested,
		PricePerUnit: price,
		Quantity:     quantity,
		CreatedAt:    row.CreatedAt,
		Notified:     row.Notified,
	}, nil
}
