package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

const storeColumns = `
	s.id, s.store_name, s.store_owner, s.cell_number, s.secondary_number, s.email,
	s.country, s.street, s.suburb, s.province, s.city, s.postal_code, s.description,
	s.bank_name, s.branch_code, s.account_holder, s.account_number, s.account_type,
	s.banner_url, s.logo_url, s.is_open, s.status_updated_at, s.created_at, s.version,
	COALESCE(
		(SELECT ARRAY_AGG(sa.email ORDER BY sa.position) FROM store_admins sa WHERE sa.store_id = s.id),
		'{}'
	)
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStore(row rowScanner, m *pgtype.Map) (*domain.Store, error) {
	store := &domain.Store{}
	var statusUpdatedAt sql.NullTime

	dst := []any{
		&store.ID, &store.StoreName, &store.StoreOwner, &store.CellNumber, &store.SecondaryNumber, &store.Email,
		&store.Country, &store.Street, &store.Suburb, &store.Province, &store.City, &store.PostalCode, &store.Description,
		&store.BankName, &store.BranchCode, &store.AccountHolder, &store.AccountNumber, &store.AccountType,
		&store.BannerURL, &store.LogoURL, &store.IsOpen, &statusUpdatedAt, &store.CreatedAt, &store.Version,
		m.SQLScanner(&store.Admins),
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if statusUpdatedAt.Valid {
		store.StatusUpdatedAt = &statusUpdatedAt.Time
	}
	if store.Admins == nil {
		store.Admins = []string{}
	}

	return store, nil
}

func (r *Repository) queryStores(query string, args ...any) ([]*domain.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := pgtype.NewMap()
	stores := make([]*domain.Store, 0)
	for rows.Next() {
		store, err := scanStore(rows, m)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stores, nil
}

func (r *Repository) GetAllStores() ([]*domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores s ORDER BY s.id`
	return r.queryStores(query)
}

func (r *Repository) GetStoresByAdminEmail(email string) ([]*domain.Store, error) {
	query := `
		SELECT ` + storeColumns + `
		FROM stores s
		WHERE EXISTS (SELECT 1 FROM store_admins sa WHERE sa.store_id = s.id AND sa.email = $1)
		ORDER BY s.id
	`
	return r.queryStores(query, normalizeEmail(email))
}

func (r *Repository) GetStoreByID(id int64) (*domain.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + storeColumns + ` FROM stores s WHERE s.id = $1`
	return scanStore(r.dbpool.QueryRowContext(ctx, query, id), pgtype.NewMap())
}

// CreateStore 在同一个事务中插入店铺、管理员以及营业时间，schedule 可以为 nil。
// store.IsOpen 和 store.StatusUpdatedAt 作为初始的缓存状态写入。
func (r *Repository) CreateStore(store *domain.Store, schedule *domain.WeeklySchedule) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO stores (
			store_name, store_owner, cell_number, secondary_number, email,
			country, street, suburb, province, city, postal_code, description,
			bank_name, branch_code, account_holder, account_number, account_type,
			banner_url, logo_url, is_open, status_updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id, is_open, created_at, version
	`
	args := []any{
		store.StoreName, store.StoreOwner, store.CellNumber, store.SecondaryNumber, store.Email,
		store.Country, store.Street, store.Suburb, store.Province, store.City, store.PostalCode, store.Description,
		store.BankName, store.BranchCode, store.AccountHolder, store.AccountNumber, store.AccountType,
		store.BannerURL, store.LogoURL, store.IsOpen, store.StatusUpdatedAt,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&store.ID, &store.IsOpen, &store.CreatedAt, &store.Version); err != nil {
		return err
	}

	if err := replaceStoreAdmins(ctx, tx, store); err != nil {
		return err
	}

	if schedule != nil {
		schedule.StoreID = store.ID
		if err := upsertSchedule(ctx, tx, schedule); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// UpdateStore 使用乐观锁，版本不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateStore(store *domain.Store) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE stores
		SET
			store_name = $1, store_owner = $2, cell_number = $3, secondary_number = $4, email = $5,
			country = $6, street = $7, suburb = $8, province = $9, city = $10, postal_code = $11,
			description = $12, bank_name = $13, branch_code = $14, account_holder = $15,
			account_number = $16, account_type = $17, banner_url = $18, logo_url = $19,
			version = version + 1
		WHERE id = $20 AND version = $21
		RETURNING version
	`
	args := []any{
		store.StoreName, store.StoreOwner, store.CellNumber, store.SecondaryNumber, store.Email,
		store.Country, store.Street, store.Suburb, store.Province, store.City, store.PostalCode,
		store.Description, store.BankName, store.BranchCode, store.AccountHolder,
		store.AccountNumber, store.AccountType, store.BannerURL, store.LogoURL,
		store.ID, store.Version,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&store.Version); err != nil {
		return err
	}

	if err := replaceStoreAdmins(ctx, tx, store); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// DeleteStore 删除店铺及其所有关联数据，返回需要从对象存储中删除的文件地址
func (r *Repository) DeleteStore(id int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var bannerURL, logoURL string
	query := `SELECT banner_url, logo_url FROM stores WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, query, id).Scan(&bannerURL, &logoURL); err != nil {
		return nil, err
	}

	urls := objectURLs([]string{bannerURL, logoURL})

	query = `SELECT images, variant_images FROM products WHERE store_id = $1`
	rows, err := tx.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	m := pgtype.NewMap()
	for rows.Next() {
		var images, variantImages []string
		if err := rows.Scan(m.SQLScanner(&images), m.SQLScanner(&variantImages)); err != nil {
			rows.Close()
			return nil, err
		}
		urls = append(urls, objectURLs(images, variantImages)...)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// products、store_schedules、store_admins 以及配送地点都设置了 ON DELETE CASCADE
	query = `DELETE FROM stores WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return urls, nil
}

func (r *Repository) IsStoreAdmin(storeID int64, email string) (bool, error) {
	isAdmin := false

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT EXISTS (SELECT 1 FROM store_admins WHERE store_id = $1 AND email = $2)
	`
	if err := r.dbpool.QueryRowContext(ctx, query, storeID, normalizeEmail(email)).Scan(&isAdmin); err != nil {
		return false, err
	}

	return isAdmin, nil
}

func (r *Repository) ListAllStoreIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, `SELECT id FROM stores ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// SetStoreOpen 写入缓存的营业状态，返回营业状态是否发生了变化
func (r *Repository) SetStoreOpen(ctx context.Context, storeID int64, isOpen bool, asOf time.Time) (bool, error) {
	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	// 这里不修改 version，避免定时任务导致用户编辑店铺信息时出现版本冲突
	query := `
		UPDATE stores s
		SET is_open = $1, status_updated_at = $2
		FROM (SELECT id, is_open FROM stores WHERE id = $3 FOR UPDATE) prev
		WHERE s.id = prev.id
		RETURNING prev.is_open
	`

	var wasOpen bool
	if err := r.dbpool.QueryRowContext(ctx, query, isOpen, asOf, storeID).Scan(&wasOpen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 店铺在本轮刷新期间被删除了
			return false, nil
		}
		return false, err
	}

	return wasOpen != isOpen, nil
}

func replaceStoreAdmins(ctx context.Context, tx *sql.Tx, store *domain.Store) error {
	query := `DELETE FROM store_admins WHERE store_id = $1`
	if _, err := tx.ExecContext(ctx, query, store.ID); err != nil {
		return err
	}

	seen := make(map[string]bool)
	admins := make([]string, 0, len(store.Admins))
	for _, email := range store.Admins {
		email = normalizeEmail(email)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		admins = append(admins, email)
	}

	query = `INSERT INTO store_admins (store_id, email, position) VALUES ($1, $2, $3)`
	for i, email := range admins {
		if _, err := tx.ExecContext(ctx, query, store.ID, email, i); err != nil {
			return err
		}
	}
	store.Admins = admins

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
