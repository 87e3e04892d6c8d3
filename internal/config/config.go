package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
		MaxUploadSize   int64  `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10 MB
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Email    string `env:"EMAIL,required"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"平台管理员"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"168"` // 单位为小时，7 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD" envDefault:"marketplace"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN" envDefault:"example.com"`
		SMTP       struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	Storage struct {
		Endpoint  string `env:"ENDPOINT"`
		Region    string `env:"REGION" envDefault:"us-east-1"`
		AccessKey string `env:"ACCESS_KEY,required"`
		SecretKey string `env:"SECRET_KEY,required"`
		Bucket    string `env:"BUCKET,required"`
		BaseURL   string `env:"BASE_URL"` // 为空时使用 https://{bucket}
		PathStyle bool   `env:"PATH_STYLE" envDefault:"true"`
	} `envPrefix:"STORAGE_"`
	StoreStatus struct {
		RefreshInterval int    `env:"REFRESH_INTERVAL" envDefault:"300"` // 单位为秒，5 分钟
		Concurrency     int    `env:"CONCURRENCY" envDefault:"8"`
		LockTTL         int    `env:"LOCK_TTL" envDefault:"240"` // 单位为秒，应小于刷新间隔
		Timezone        string `env:"TIMEZONE" envDefault:"Local"`
		Enabled         bool   `env:"ENABLED" envDefault:"true"`
	} `envPrefix:"STORE_STATUS_"`
	Product struct {
		MarkupPercentage float64 `env:"MARKUP_PERCENTAGE" envDefault:"10"`
	} `envPrefix:"PRODUCT_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if cfg.StoreStatus.Concurrency < 1 {
		return nil, fmt.Errorf("STORE_STATUS_CONCURRENCY 必须大于 0")
	}
	if cfg.StoreStatus.RefreshInterval < 1 {
		return nil, fmt.Errorf("STORE_STATUS_REFRESH_INTERVAL 必须大于 0")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location 返回计算店铺营业状态时使用的时区
func (cfg *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(cfg.StoreStatus.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无效的时区 %q: %w", cfg.StoreStatus.Timezone, err)
	}
	return loc, nil
}

func (cfg *Config) RefreshInterval() time.Duration {
	return time.Duration(cfg.StoreStatus.RefreshInterval) * time.Second
}
