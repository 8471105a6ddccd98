package database

import (
	"github.com/gdg-garage/achievement-board/internal/models"
	"github.com/m-mizutani/goerr/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to database", goerr.V("path", path))
	}

	// Every connection to ":memory:" opens a fresh database.
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get sql.DB")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Achievement{}); err != nil {
		return goerr.Wrap(err, "failed to auto migrate")
	}
	return nil
}
