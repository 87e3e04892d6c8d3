package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/config"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// withQueryTimeout 用于由调用方传入 ctx 的方法（例如定时任务），在其基础上附加查询超时
func (r *Repository) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	return r.dbpool.PingContext(ctx)
}
