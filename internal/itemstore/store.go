// Package itemstore persists the menu items contributed by installed
// plugins. Items are only ever written or deleted as a batch tied to one
// plugin's install or uninstall.
package itemstore

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Item is a user-visible menu entry contributed by a plugin
type Item struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	OwnerPluginID string `gorm:"index;not null" json:"owner_plugin_id"`
	Key           string `gorm:"not null" json:"key"`
	Payload       string `json:"payload,omitempty"`
}

// Store is the local persisted item registry, keyed by owner plugin id
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the item database at path
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open item database: %w", err)
	}

	if err := db.AutoMigrate(&Item{}); err != nil {
		return nil, fmt.Errorf("migrate item database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PutItems replaces any existing items owned by pluginID with the given
// batch in a single transaction.
func (s *Store) PutItems(pluginID string, items []Item) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_plugin_id = ?", pluginID).Delete(&Item{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].OwnerPluginID = pluginID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// ClearItems deletes all items owned by pluginID and returns the count
// removed. Clearing a plugin with no items is a no-op, not an error.
func (s *Store) ClearItems(pluginID string) (int64, error) {
	res := s.db.Where("owner_plugin_id = ?", pluginID).Delete(&Item{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListItems returns all items owned by pluginID in insertion order
func (s *Store) ListItems(pluginID string) ([]Item, error) {
	var items []Item
	if err := s.db.Where("owner_plugin_id = ?", pluginID).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
