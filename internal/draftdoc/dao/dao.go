// Хранение документов и вложений в базе данных через gorm.
//
// Основные возможности:
//   - Подключение к PostgreSQL или к файлу SQLite (без cgo).
//   - Миграция схемы документов и вложений.
//   - Генерация идентификаторов.
package dao

import (
	"errors"
	"log/slog"
	"time"

	"github.com/aisa-it/draftdoc/internal/draftdoc/config"
	_ "github.com/aisa-it/draftdoc/internal/draftdoc/editor/draftjs"
	"github.com/aisa-it/draftdoc/internal/draftdoc/gormlogger"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrNoDatabase = errors.New("DATABASE_URL or SQLITE_PATH is required")

// GenID генерирует строковый UUID v4
func GenID() string {
	return GenUUID().String()
}

func GenUUID() uuid.UUID {
	u, _ := uuid.NewV4()
	return u
}

// OpenDB открывает базу по конфигурации: DATABASE_URL имеет приоритет над SQLITE_PATH.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case cfg.DatabaseDSN != "":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseDSN,
			PreferSimpleProtocol: false,
		})
	case cfg.SQLitePath != "":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, ErrNoDatabase
	}

	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.NewGormLogger(slog.Default(), 200*time.Millisecond, true),
	})
}

// Migrate создает или обновляет таблицы документов.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Doc{}, &DocAttachment{})
}
