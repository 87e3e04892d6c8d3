// Package seed 从 CSV 文件中导入真实的店铺数据。
package seed

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/repository"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/utils"
)

var requiredHeaders = []string{"店铺名称", "店主", "电话", "邮箱"}

type StoreRecord struct {
	Store    *domain.Store
	Schedule *domain.WeeklySchedule
}

// ParseStoreRecords 解析 CSV，每一行是一个店铺。
// 营业时间列的表头为 周日 ~ 周六，值形如 09:00-17:00，为空表示当天休息，中文冒号也可以被识别。
// 管理员邮箱列可以填写多个邮箱，格式与 utils.ParseFlexibleArray 一致。
func ParseStoreRecords(r io.Reader) ([]StoreRecord, error) {
	reader := csv.NewReader(r)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}
	for _, h := range requiredHeaders {
		if !containsHeader(headers, h) {
			return nil, fmt.Errorf("没有找到 %s 列", h)
		}
	}

	var records []StoreRecord
	line := 1
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("读取文件失败: %w", err)
		}
		line++

		record := make(map[string]string, len(headers))
		for i, value := range row {
			if i < len(headers) {
				record[headers[i]] = strings.TrimSpace(value)
			}
		}

		sr, err := toStoreRecord(record)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}
		records = append(records, sr)
	}

	return records, nil
}

func toStoreRecord(record map[string]string) (StoreRecord, error) {
	store := &domain.Store{
		StoreName:   record["店铺名称"],
		StoreOwner:  record["店主"],
		CellNumber:  record["电话"],
		Email:       strings.ToLower(record["邮箱"]),
		Country:     "中国",
		Province:    record["省份"],
		City:        record["城市"],
		PostalCode:  record["邮编"],
		Street:      record["地址"],
		Description: record["简介"],
		Admins:      utils.ParseFlexibleArray(record["管理员邮箱"]),
	}
	if store.StoreName == "" {
		return StoreRecord{}, errors.New("店铺名称不能为空")
	}
	if len(store.Admins) == 0 {
		store.Admins = []string{store.Email}
	}

	schedule := &domain.WeeklySchedule{}
	hasSchedule := false
	for day := time.Sunday; day <= time.Saturday; day++ {
		value, ok := record[utils.WeekdayName(day)]
		if !ok {
			continue
		}
		hasSchedule = true

		value = strings.ReplaceAll(value, "：", ":")
		if value == "" || value == "休息" {
			continue
		}

		open, closeAt, found := strings.Cut(value, "-")
		if !found {
			return StoreRecord{}, fmt.Errorf("%s的营业时间格式错误", utils.WeekdayName(day))
		}
		schedule.Days[day] = domain.DayWindow{Open: strings.TrimSpace(open), Close: strings.TrimSpace(closeAt)}
	}

	if !hasSchedule {
		return StoreRecord{Store: store}, nil
	}

	if err := utils.ValidateWeeklySchedule(schedule); err != nil {
		return StoreRecord{}, err
	}
	utils.NormalizeWeeklySchedule(schedule)

	return StoreRecord{Store: store, Schedule: schedule}, nil
}

func containsHeader(headers []string, h string) bool {
	for _, header := range headers {
		if header == h {
			return true
		}
	}
	return false
}

// ImportStores 导入店铺，店铺管理员不存在时会使用 passwordHash 创建账号
func ImportStores(r *repository.Repository, path string, passwordHash string) {
	file, err := os.Open(path)
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	records, err := ParseStoreRecords(file)
	if err != nil {
		slog.Error("解析文件失败", "error", err)
		return
	}

	cnt := 0
	for _, record := range records {
		for _, email := range record.Store.Admins {
			if err := ensureUser(r, email, record.Store.StoreOwner, passwordHash); err != nil {
				slog.Error("创建店铺管理员失败", "email", email, "error", err)
			}
		}

		// 营业状态由定时刷新写入
		if err := r.CreateStore(record.Store, record.Schedule); err != nil {
			slog.Error("插入店铺失败", "store_name", record.Store.StoreName, "error", err)
			continue
		}

		cnt++
	}

	slog.Info("导入店铺完成", slog.Int("count", cnt), slog.Int("total", len(records)))
}

func ensureUser(r *repository.Repository, email string, fullName string, passwordHash string) error {
	email = strings.ToLower(email)

	_, err := r.GetUserByEmail(email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	return r.CreateUser(&domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Role:         domain.RoleCustomer,
	})
}
