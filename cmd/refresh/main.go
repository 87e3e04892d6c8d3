// refresh 执行一轮店铺营业状态刷新后退出，用于由外部的 cron 触发刷新的部署方式。
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/config"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/refresher"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const refreshLockKey = "marketplace:store_status_refresh_lock"

func main() {
	var timeout time.Duration
	var useLock bool

	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "本轮刷新的最长时间，超时后剩余的店铺留到下一轮")
	flag.BoolVar(&useLock, "lock", true, "是否通过 redis 锁避免与其他实例同时刷新")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger, timeout, useLock); err != nil {
		logger.Error("营业状态刷新失败", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, timeout time.Duration, useLock bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("无法加载配置文件: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("无法创建数据库连接池: %w", err)
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		return fmt.Errorf("无法连接到数据库: %w", err)
	}

	repo := repository.NewRepository(cfg, dbpool)

	opts := refresher.Options{
		Concurrency: cfg.StoreStatus.Concurrency,
		Location:    loc,
		Logger:      logger,
	}

	if useLock {
		rdb := redis.NewClient(&redis.Options{
			Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:    cfg.Redis.Password,
			DB:          0,
			DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
		})
		defer rdb.Close()

		opts.Locker = refresher.NewRedisLocker(rdb, refreshLockKey, time.Duration(cfg.StoreStatus.LockTTL)*time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	report, err := refresher.New(repo, repo, opts).Refresh(ctx)
	if err != nil {
		if errors.Is(err, refresher.ErrBatchInProgress) {
			logger.Info("其他实例正在刷新营业状态，本次不执行")
			return nil
		}
		return err
	}

	logger.Info("已刷新店铺营业状态",
		slog.Time("as_of", report.AsOf),
		slog.Int("total", report.Total),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("abandoned", report.Abandoned),
		slog.Int("changed", report.Changed),
		slog.Duration("duration", report.Duration),
	)
	return nil
}
