// Package refresher 定期重新计算所有店铺的营业状态，并写回 stores.is_open 这个缓存字段。
package refresher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/availability"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

var ErrBatchInProgress = errors.New("上一轮营业状态刷新仍在进行")

type ScheduleStore interface {
	ListAllStoreIDs(ctx context.Context) ([]int64, error)
	// 店铺没有营业时间记录时返回 (nil, nil)
	GetSchedule(ctx context.Context, storeID int64) (*domain.WeeklySchedule, error)
}

type StatusSink interface {
	// 返回值 changed 表示缓存的营业状态是否发生了变化
	SetStoreOpen(ctx context.Context, storeID int64, isOpen bool, asOf time.Time) (changed bool, err error)
}

// Locker 用于保证多个实例之间同一时间只有一个在刷新
type Locker interface {
	TryLock(ctx context.Context) (unlock func(), ok bool, err error)
}

type Notifier interface {
	StoreStatusChanged(ctx context.Context, availability domain.StoreAvailability) error
}

type Options struct {
	Interval    time.Duration
	Concurrency int
	Location    *time.Location
	Now         func() time.Time
	Locker      Locker   // 可以为 nil
	Notifier    Notifier // 可以为 nil
	Logger      *slog.Logger
}

type Failure struct {
	StoreID int64
	Err     error
}

type Report struct {
	AsOf      time.Time // 本轮所有店铺共用的时间
	Total     int
	Succeeded int
	Failed    int
	Abandoned int // 因为 ctx 被取消而没有处理的店铺
	Changed   int
	Failures  []Failure
	Duration  time.Duration
}

type Refresher struct {
	schedules ScheduleStore
	sink      StatusSink
	opts      Options

	running atomic.Bool
	wg      sync.WaitGroup
}

func New(schedules ScheduleStore, sink StatusSink, opts Options) *Refresher {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Refresher{
		schedules: schedules,
		sink:      sink,
		opts:      opts,
	}
}

// Refresh 执行一轮刷新。
//
// 单个店铺的失败只会记录在 Report 中，不会中断整轮刷新。
// 只有在上一轮仍在进行（ErrBatchInProgress）或者无法获取店铺列表时才返回 error。
func (r *Refresher) Refresh(ctx context.Context) (*Report, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrBatchInProgress
	}
	defer r.running.Store(false)

	if r.opts.Locker != nil {
		unlock, ok, err := r.opts.Locker.TryLock(ctx)
		if err != nil {
			return nil, fmt.Errorf("无法获取刷新锁: %w", err)
		}
		if !ok {
			return nil, ErrBatchInProgress
		}
		defer unlock()
	}

	start := time.Now()
	now := r.opts.Now().In(r.opts.Location).Truncate(time.Second)

	storeIDs, err := r.schedules.ListAllStoreIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("无法获取店铺列表: %w", err)
	}

	report := &Report{
		AsOf:  now,
		Total: len(storeIDs),
	}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(r.opts.Concurrency)

	for _, storeID := range storeIDs {
		if ctx.Err() != nil {
			// 进程正在退出，剩下的店铺留到下一轮处理
			mu.Lock()
			report.Abandoned++
			mu.Unlock()
			continue
		}

		storeID := storeID
		g.Go(func() error {
			changed, err := r.refreshStore(ctx, storeID, now)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Failures = append(report.Failures, Failure{StoreID: storeID, Err: err})
				r.opts.Logger.Error("刷新店铺营业状态失败", slog.Int64("store_id", storeID), "error", err)
				return nil
			}
			report.Succeeded++
			if changed {
				report.Changed++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].StoreID < report.Failures[j].StoreID
	})
	report.Duration = time.Since(start)

	return report, nil
}

func (r *Refresher) refreshStore(ctx context.Context, storeID int64, now time.Time) (bool, error) {
	schedule, err := r.schedules.GetSchedule(ctx, storeID)
	if err != nil {
		return false, fmt.Errorf("读取营业时间失败: %w", err)
	}

	// schedule 为 nil 时视为全天不营业
	a := availability.Evaluate(storeID, schedule, now)

	changed, err := r.sink.SetStoreOpen(ctx, storeID, a.IsOpen, now)
	if err != nil {
		return false, fmt.Errorf("写入营业状态失败: %w", err)
	}

	if changed && r.opts.Notifier != nil {
		if err := r.opts.Notifier.StoreStatusChanged(ctx, a); err != nil {
			// 通知失败不影响营业状态的刷新
			r.opts.Logger.Warn("无法发送营业状态变化通知", slog.Int64("store_id", storeID), "error", err)
		}
	}

	return changed, nil
}

// Run 启动时立即刷新一次，之后每隔 Interval 刷新一次，直到 ctx 被取消。
// 如果上一轮还没结束，本次触发会被直接丢弃。
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	r.trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return
		case <-ticker.C:
			r.trigger(ctx)
		}
	}
}

func (r *Refresher) trigger(ctx context.Context) {
	if r.running.Load() {
		r.opts.Logger.Info("上一轮营业状态刷新仍在进行，跳过本次触发")
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runOnce(ctx)
	}()
}

func (r *Refresher) runOnce(ctx context.Context) {
	report, err := r.Refresh(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrBatchInProgress):
			r.opts.Logger.Info("营业状态刷新已由其他任务执行，跳过本次触发")
		default:
			r.opts.Logger.Error("营业状态刷新失败", "error", err)
		}
		return
	}

	r.opts.Logger.Info("已刷新店铺营业状态",
		slog.Time("as_of", report.AsOf),
		slog.Int("total", report.Total),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("abandoned", report.Abandoned),
		slog.Int("changed", report.Changed),
		slog.Duration("duration", report.Duration),
	)
}
