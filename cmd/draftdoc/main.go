// Основной пакет приложения DraftDoc. Читает конфигурацию, подключает базу данных, выполняет миграцию
// моделей и запускает HTTP сервер.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aisa-it/draftdoc/internal/draftdoc"
	"github.com/aisa-it/draftdoc/internal/draftdoc/config"
	"github.com/aisa-it/draftdoc/internal/draftdoc/dao"
	"github.com/aisa-it/draftdoc/internal/draftdoc/gormlogger"
)

var version string = "DEV"

// Пример запуска: go run main.go --noMigration --trace
func main() {
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	cfg, err := config.ReadConfig()
	if err != nil {
		slog.Error("Read config", "err", err)
		os.Exit(1)
	}

	slog.Info("DraftDoc start.")

	db, err := dao.OpenDB(cfg)
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}
	db.Logger = gormlogger.NewGormLogger(slog.Default(), time.Second*4, *paramQueries)

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Fail set settings to conn pool", "err", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(time.Minute * 15)

	if !*noMigration {
		slog.Info("Migrate models")
		if err := dao.Migrate(db); err != nil {
			slog.Error("Migration failed", "err", err)
			os.Exit(1)
		}
	}

	if err := draftdoc.Server(db, cfg, version); err != nil {
		slog.Error("Server fail", "err", err)
		os.Exit(1)
	}
}

func PrintBanner() {
	banner := `
  ____             __ _   ____
 |  _ \ _ __ __ _ / _| |_|  _ \  ___   ___
 | | | | '__/ _' | |_| __| | | |/ _ \ / __|
 | |_| | | | (_| |  _| |_| |_| | (_) | (__
 |____/|_|  \__,_|_|  \__|____/ \___/ \___|
`
	fmt.Println(banner)
	fmt.Printf("  version: \033[1;32m%s\033[0m\n\n", version)
}
