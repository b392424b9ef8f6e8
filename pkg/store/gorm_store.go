package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"growskill/pkg/domain"
)

// Drivers accepted by NewGormStore.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// GormStore persists the session as key/value rows. SQLite is the on-device
// default.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the database for driver and runs auto-migrations. The
// driver alone picks the dialect; the DSN is passed through as given.
func NewGormStore(driver, dsn string) (*GormStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("session dsn is required")
	}
	gormLog := gormlogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		if isPostgresURL(dsn) {
			return nil, errors.New("sqlite session store given a postgres dsn")
		}
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create session dir: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown session driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&SessionEntryModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func isPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// SaveSession writes token and user in one transaction.
func (s *GormStore) SaveSession(ctx context.Context, token string, user domain.User) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return err
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rows := []SessionEntryModel{
		{Key: KeyToken, Value: datatypes.JSON(tokenJSON), UpdatedAt: now},
		{Key: KeyUser, Value: datatypes.JSON(userJSON), UpdatedAt: now},
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
}

// Token returns the persisted token.
func (s *GormStore) Token(ctx context.Context) (string, bool, error) {
	var token string
	ok, err := s.get(ctx, KeyToken, &token)
	if err != nil || !ok {
		return "", false, err
	}
	return token, token != "", nil
}

// User returns the persisted user record.
func (s *GormStore) User(ctx context.Context) (domain.User, bool, error) {
	var user domain.User
	ok, err := s.get(ctx, KeyUser, &user)
	if err != nil || !ok {
		return domain.User{}, false, err
	}
	return user, true, nil
}

// ClearSession deletes the token row.
func (s *GormStore) ClearSession(ctx context.Context) error {
	return s.db.WithContext(ctx).Delete(&SessionEntryModel{}, "entry_key = ?", KeyToken).Error
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) get(ctx context.Context, key string, out any) (bool, error) {
	var model SessionEntryModel
	if err := s.db.WithContext(ctx).First(&model, "entry_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(model.Value, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
