// Конфигурация сервиса документов из переменных окружения.
//
// Основные возможности:
//   - Загрузка значений по тегам `env` структуры Config.
//   - Маскировка секретов при логировании.
//   - Значения по умолчанию для адресов, ограничений и расписания обслуживания.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"strings"
)

const (
	DefaultListenAddr          = ":8080"
	DefaultFilesDir            = "files"
	DefaultMetricsAddr         = ":2112"
	DefaultMaxListDepth        = 4
	DefaultMaxUploadSizeMB     = 20
	DefaultAssetsCleanSchedule = "0 1 * * *"
)

var ErrWebURLRequired = errors.New("WEB_URL is required")

type Config struct {
	WebURLRaw string `env:"WEB_URL"`
	WebURL    *url.URL

	DatabaseDSN string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH"`

	AWSRegion     string `env:"AWS_REGION"`
	AWSAccessKey  string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey  string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSEndpoint   string `env:"AWS_S3_ENDPOINT_URL"`
	AWSBucketName string `env:"AWS_S3_BUCKET_NAME"`

	// FilesDir - каталог файлов, если S3 не настроен
	FilesDir string `env:"FILES_DIR"`

	ListenAddr  string `env:"LISTEN_ADDR"`
	MetricsAddr string `env:"METRICS_ADDR"`

	MaxListDepth    int `env:"MAX_LIST_DEPTH"`
	MaxUploadSizeMB int `env:"MAX_UPLOAD_SIZE_MB"`

	AssetsCleanSchedule string `env:"ASSETS_CLEAN_SCHEDULE"`
	AssetsCleanDisabled bool   `env:"ASSETS_CLEAN_DISABLED"`

	PDFFontPath string `env:"PDF_FONT_PATH"`
}

// ReadConfig читает конфигурацию и подставляет значения по умолчанию. WEB_URL обязателен.
func ReadConfig() (*Config, error) {
	cfg := &Config{}
	envConfig("env", cfg)

	if cfg.WebURLRaw == "" {
		return nil, ErrWebURLRequired
	}
	u, err := url.Parse(cfg.WebURLRaw)
	if err != nil {
		return nil, fmt.Errorf("WEB_URL incorrect: %w", err)
	}
	cfg.WebURL = u

	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "us-east-1"
	}
	if cfg.FilesDir == "" {
		cfg.FilesDir = DefaultFilesDir
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = DefaultMetricsAddr
	}
	if cfg.MaxListDepth <= 0 {
		cfg.MaxListDepth = DefaultMaxListDepth
	}
	if cfg.MaxUploadSizeMB <= 0 {
		cfg.MaxUploadSizeMB = DefaultMaxUploadSizeMB
	}
	if cfg.AssetsCleanSchedule == "" {
		cfg.AssetsCleanSchedule = DefaultAssetsCleanSchedule
	}

	return cfg, nil
}

// MaxUploadSize - ограничение размера загружаемого файла в байтах
func (c *Config) MaxUploadSize() int64 {
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}

// Присваивает полям структуры значения переменных окружения, имя переменной берется из тега.
func envConfig(key string, s any) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)
		if fEnvTag == "" || !Exist(fEnvTag) {
			continue
		}

		value := GetEnv(fEnvTag)
		if value == "" {
			continue
		}

		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", maskSecret(fName, value)),
			slog.String("source", "ENVIRONMENT"),
		)

		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(value)
		case int:
			v.Field(i).SetInt(int64(GetIntEnv(fEnvTag)))
		case bool:
			v.Field(i).SetBool(GetBoolEnv(fEnvTag))
		}
	}
}

func maskSecret(field, value string) string {
	name := strings.ToLower(field)
	if !strings.Contains(name, "pass") && !strings.Contains(name, "secret") && !strings.Contains(name, "token") && !strings.Contains(name, "dsn") {
		return value
	}
	r := []rune(value)
	if len(r) < 3 {
		return strings.Repeat("*", len(r))
	}
	return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
}
