package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/notebridge/internal/entities"
)

const (
	// DefaultDeckID is the deck every new collection starts with.
	DefaultDeckID int64 = 1

	collectionRowID int64 = 1
)

var defaultNotetype = entities.Notetype{
	Name:  "Basic",
	Flds:  entities.JoinFields([]string{"Front", "Back"}),
	Tmpls: entities.JoinFields([]string{"Card 1"}),
}

type Database struct {
	DB   *gorm.DB
	path string
}

// NewDatabase opens (creating if needed) a collection database at dbPath.
func NewDatabase(dbPath string, verbose bool) (*Database, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.CollectionInfo{},
		&entities.Notetype{},
		&entities.Deck{},
		&entities.Note{},
		&entities.Card{},
		&entities.ImportBatch{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db, path: dbPath}

	if err := database.seed(); err != nil {
		return nil, fmt.Errorf("failed to seed collection: %w", err)
	}

	return database, nil
}

// Path returns the database file the collection was opened from.
func (d *Database) Path() string {
	return d.path
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// seed creates the collection header, the default deck and the Basic note
// type on first open.
func (d *Database) seed() error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		var info entities.CollectionInfo
		result := tx.Limit(1).Find(&info, collectionRowID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		now := time.Now().Unix()
		info = entities.CollectionInfo{ID: collectionRowID, Crt: now, Mod: now, CurDeck: DefaultDeckID}
		if err := tx.Create(&info).Error; err != nil {
			return fmt.Errorf("create collection header: %w", err)
		}

		deck := entities.Deck{ID: DefaultDeckID, Name: "Default"}
		if err := tx.Create(&deck).Error; err != nil {
			return fmt.Errorf("create default deck: %w", err)
		}

		notetype := defaultNotetype
		notetype.Mod = now
		if err := tx.Create(&notetype).Error; err != nil {
			return fmt.Errorf("create default note type: %w", err)
		}
		return nil
	})
}

// Info returns the collection header.
func (d *Database) Info() (entities.CollectionInfo, error) {
	var info entities.CollectionInfo
	err := d.DB.First(&info, collectionRowID).Error
	return info, err
}

// SetCreatedAt overrides the collection creation time.
func (d *Database) SetCreatedAt(t time.Time) error {
	return d.DB.Model(&entities.CollectionInfo{}).
		Where("id = ?", collectionRowID).
		Update("crt", t.Unix()).Error
}

// SetCurrentDeck records the deck new notes go to by default.
func (d *Database) SetCurrentDeck(deckID int64) error {
	return d.DB.Model(&entities.CollectionInfo{}).
		Where("id = ?", collectionRowID).
		Update("cur_deck", deckID).Error
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}
