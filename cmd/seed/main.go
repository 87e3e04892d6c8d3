package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/config"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/repository"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/seed"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var storeID int64
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机店铺及营业时间, 3: 为店铺插入随机商品, 4: 为店铺插入随机配送地点, 5: 从 CSV 导入店铺)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&storeID, "store-id", 0, "插入商品或配送地点的店铺 ID，为 0 时随机选择")
	flag.StringVar(&file, "file", "./internal/seed/data/stores.csv", "导入店铺时使用的 CSV 文件")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	if n <= 0 && op != 5 {
		slog.Error("请输入合法的记录数量")
		return
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("无法生成随机用户", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				slog.Error("无法插入用户", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入用户成功", slog.Int("count", cnt))
	case 2:
		// 店主从已有的用户中随机选择
		users, err := repo.GetAllUsers()
		if err != nil {
			slog.Error("无法获取用户列表", slog.String("error", err.Error()))
			return
		}
		if len(users) == 0 {
			slog.Error("请先插入用户")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			owner := users[rand.Intn(len(users))]

			store := utils.GenerateRandomStore(owner, cfg.Email.UserDomain)
			schedule := utils.GenerateRandomWeeklySchedule(0)
			if err := repo.CreateStore(store, schedule); err != nil {
				slog.Error("无法插入店铺", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入店铺成功", slog.Int("count", cnt))
	case 3:
		stores, err := pickStores(repo, storeID)
		if err != nil {
			slog.Error("无法获取店铺", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			store := stores[rand.Intn(len(stores))]

			product := utils.GenerateRandomProduct(store.ID, cfg.Product.MarkupPercentage)
			if err := repo.CreateProduct(product); err != nil {
				slog.Error("无法插入商品", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入商品成功", slog.Int("count", cnt))
	case 4:
		stores, err := pickStores(repo, storeID)
		if err != nil {
			slog.Error("无法获取店铺", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			store := stores[rand.Intn(len(stores))]

			location := utils.GenerateRandomDeliveryLocation(store.ID)
			if err := repo.CreateDeliveryLocation(location); err != nil {
				slog.Error("无法插入配送地点", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入配送地点成功", slog.Int("count", cnt))
	case 5:
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.User.Password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("无法生成密码哈希", slog.String("error", err.Error()))
			return
		}
		seed.ImportStores(repo, file, string(passwordHash))
	default:
		slog.Error("指定的操作非法")
	}
}

// pickStores storeID 为 0 时返回所有店铺
func pickStores(repo *repository.Repository, storeID int64) ([]*domain.Store, error) {
	if storeID != 0 {
		store, err := repo.GetStoreByID(storeID)
		if err != nil {
			return nil, err
		}
		return []*domain.Store{store}, nil
	}

	stores, err := repo.GetAllStores()
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, sql.ErrNoRows
	}
	return stores, nil
}
