package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

// 下标与 time.Weekday 一致
var dayColumns = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var (
	selectScheduleQuery string
	upsertScheduleQuery string
)

func init() {
	// TIME 类型转换为 text 后的格式为 HH:MM:SS
	selects := make([]string, 0, 14)
	inserts := make([]string, 0, 14)
	placeholders := make([]string, 0, 14)
	updates := make([]string, 0, 14)

	for i, day := range dayColumns {
		open, closeCol := day+"_open", day+"_close"
		selects = append(selects, open+"::text", closeCol+"::text")
		inserts = append(inserts, open, closeCol)
		placeholders = append(placeholders, fmt.Sprintf("$%d::time", i*2+2), fmt.Sprintf("$%d::time", i*2+3))
		updates = append(updates, open+" = EXCLUDED."+open, closeCol+" = EXCLUDED."+closeCol)
	}

	selectScheduleQuery = `
		SELECT ` + strings.Join(selects, ", ") + `, updated_at, version
		FROM store_schedules WHERE store_id = $1
	`

	upsertScheduleQuery = `
		INSERT INTO store_schedules (store_id, ` + strings.Join(inserts, ", ") + `)
		VALUES ($1, ` + strings.Join(placeholders, ", ") + `)
		ON CONFLICT (store_id) DO UPDATE SET
			` + strings.Join(updates, ",\n\t\t\t") + `,
			updated_at = NOW(),
			version = store_schedules.version + 1
		RETURNING updated_at, version
	`
}

// GetSchedule 店铺没有营业时间记录时返回 (nil, nil)
func (r *Repository) GetSchedule(ctx context.Context, storeID int64) (*domain.WeeklySchedule, error) {
	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	var times [14]sql.NullString
	s := &domain.WeeklySchedule{StoreID: storeID}

	dst := make([]any, 0, 16)
	for i := range times {
		dst = append(dst, &times[i])
	}
	dst = append(dst, &s.UpdatedAt, &s.Version)

	if err := r.dbpool.QueryRowContext(ctx, selectScheduleQuery, storeID).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	for i := range s.Days {
		s.Days[i] = domain.DayWindow{
			Open:  times[i*2].String,
			Close: times[i*2+1].String,
		}
	}

	return s, nil
}

func (r *Repository) UpsertSchedule(s *domain.WeeklySchedule) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return upsertSchedule(ctx, r.dbpool, s)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// upsertSchedule 可以在事务中调用，q 为 *sql.DB 或 *sql.Tx
func upsertSchedule(ctx context.Context, q queryRower, s *domain.WeeklySchedule) error {
	args := make([]any, 0, 15)
	args = append(args, s.StoreID)
	for _, dw := range s.Days {
		// 只填写了一半的时间按不营业保存
		if !dw.IsSet() {
			args = append(args, nil, nil)
			continue
		}
		args = append(args, dw.Open, dw.Close)
	}

	return q.QueryRowContext(ctx, upsertScheduleQuery, args...).Scan(&s.UpdatedAt, &s.Version)
}
