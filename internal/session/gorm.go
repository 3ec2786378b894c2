package session

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore keeps sessions in a sqlite file.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm opens (and migrates) the sqlite database at path.
func OpenGorm(path string) (store *GormStore, err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			err = errors.Wrapf(err, "failed to create %s", dir)
			return store, err
		}
	}

	var db *gorm.DB
	db, err = gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		err = errors.Wrapf(err, "failed to open session database %s", path)
		return store, err
	}

	if err = db.AutoMigrate(&Session{}); err != nil {
		err = errors.Wrap(err, "failed to migrate session table")
		return store, err
	}

	store = &GormStore{db: db}
	return store, err
}

func (g *GormStore) Create(ctx context.Context, s Session) error {
	if err := g.db.WithContext(ctx).Create(&s).Error; err != nil {
		return errors.Wrap(err, "failed to store session")
	}
	return nil
}

func (g *GormStore) Get(ctx context.Context, id string) (s Session, err error) {
	err = g.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrNotFound
		return s, err
	}
	if err != nil {
		err = errors.Wrap(err, "failed to load session")
	}
	return s, err
}

func (g *GormStore) Delete(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Delete(&Session{}, "id = ?", id).Error; err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return nil
}

func (g *GormStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := g.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&Session{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to delete expired sessions")
	}
	return res.RowsAffected, nil
}

func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB")
	}
	return sqlDB.Close()
}
