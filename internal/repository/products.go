package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

// 规格信息以多个按下标对应的数组列保存
const productColumns = `
	id, store_id, name, description, category,
	base_price::float8, markup_price::float8, markup_percentage::float8, stock,
	images, variant_label,
	variant_names, variant_base_prices, variant_markup_prices,
	variant_images, variant_stock,
	created_at, version
`

// scanProduct 通过 pgtype.Map 扫描数组列，m 不能被多个 goroutine 同时使用
func scanProduct(row rowScanner, m *pgtype.Map) (*domain.Product, error) {
	product := &domain.Product{}
	var basePrice, markupPrice sql.NullFloat64
	var vc variantColumns

	dst := []any{
		&product.ID, &product.StoreID, &product.Name, &product.Description, &product.Category,
		&basePrice, &markupPrice, &product.MarkupPercentage, &product.Stock,
		m.SQLScanner(&product.Images), &product.VariantLabel,
		m.SQLScanner(&vc.names), m.SQLScanner(&vc.basePrices), m.SQLScanner(&vc.markupPrices),
		m.SQLScanner(&vc.images), m.SQLScanner(&vc.stocks),
		&product.CreatedAt, &product.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if basePrice.Valid {
		product.BasePrice = &basePrice.Float64
	}
	if markupPrice.Valid {
		product.MarkupPrice = &markupPrice.Float64
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	product.Variants = vc.assemble()

	return product, nil
}

type variantColumns struct {
	names        []string
	basePrices   []float64
	markupPrices []float64
	images       []string
	stocks       []int32
}

func splitVariants(variants []domain.ProductVariant) variantColumns {
	vc := variantColumns{
		names:        make([]string, 0, len(variants)),
		basePrices:   make([]float64, 0, len(variants)),
		markupPrices: make([]float64, 0, len(variants)),
		images:       make([]string, 0, len(variants)),
		stocks:       make([]int32, 0, len(variants)),
	}

	for _, v := range variants {
		vc.names = append(vc.names, v.Name)
		vc.basePrices = append(vc.basePrices, v.BasePrice)
		vc.markupPrices = append(vc.markupPrices, v.MarkupPrice)
		vc.images = append(vc.images, v.Image)
		vc.stocks = append(vc.stocks, v.Stock)
	}

	return vc
}

// assemble 以规格名称数组为准，其余数组长度不足时使用零值
func (vc variantColumns) assemble() []domain.ProductVariant {
	variants := make([]domain.ProductVariant, 0, len(vc.names))
	for i, name := range vc.names {
		v := domain.ProductVariant{Name: name}
		if i < len(vc.basePrices) {
			v.BasePrice = vc.basePrices[i]
		}
		if i < len(vc.markupPrices) {
			v.MarkupPrice = vc.markupPrices[i]
		}
		if i < len(vc.images) {
			v.Image = vc.images[i]
		}
		if i < len(vc.stocks) {
			v.Stock = vc.stocks[i]
		}
		variants = append(variants, v)
	}
	return variants
}

// objectURLs 合并多个图片数组并去掉空地址
func objectURLs(lists ...[]string) []string {
	urls := make([]string, 0)
	for _, list := range lists {
		for _, u := range list {
			if u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}

func (r *Repository) GetProductsByStoreID(storeID int64) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE store_id = $1 ORDER BY id`

	rows, err := r.dbpool.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := pgtype.NewMap()
	products := make([]*domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows, m)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *Repository) GetProductByID(storeID int64, productID int64) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND store_id = $2`
	return scanProduct(r.dbpool.QueryRowContext(ctx, query, productID, storeID), pgtype.NewMap())
}

func (r *Repository) CreateProduct(product *domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	vc := splitVariants(product.Variants)

	query := `
		INSERT INTO products (
			store_id, name, description, category,
			base_price, markup_price, markup_percentage, stock,
			images, variant_label,
			variant_names, variant_base_prices, variant_markup_prices, variant_images, variant_stock
		)
		VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9::text[], $10,
			$11::text[], $12::numeric[], $13::numeric[], $14::text[], $15::integer[]
		)
		RETURNING id, created_at, version
	`
	args := []any{
		product.StoreID, product.Name, product.Description, product.Category,
		product.BasePrice, product.MarkupPrice, product.MarkupPercentage, product.Stock,
		nonNilImages(product.Images), product.VariantLabel,
		vc.names, vc.basePrices, vc.markupPrices, vc.images, vc.stocks,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&product.ID, &product.CreatedAt, &product.Version); err != nil {
		return err
	}

	return nil
}

// UpdateProduct 使用乐观锁，版本不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateProduct(product *domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	vc := splitVariants(product.Variants)

	query := `
		UPDATE products
		SET
			name = $1, description = $2, category = $3,
			base_price = $4, markup_price = $5, markup_percentage = $6, stock = $7,
			images = $8::text[], variant_label = $9,
			variant_names = $10::text[], variant_base_prices = $11::numeric[],
			variant_markup_prices = $12::numeric[], variant_images = $13::text[],
			variant_stock = $14::integer[],
			version = version + 1
		WHERE id = $15 AND store_id = $16 AND version = $17
		RETURNING version
	`
	args := []any{
		product.Name, product.Description, product.Category,
		product.BasePrice, product.MarkupPrice, product.MarkupPercentage, product.Stock,
		nonNilImages(product.Images), product.VariantLabel,
		vc.names, vc.basePrices,
		vc.markupPrices, vc.images,
		vc.stocks,
		product.ID, product.StoreID, product.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&product.Version); err != nil {
		return err
	}

	return nil
}

// DeleteProduct 返回需要从对象存储中删除的图片地址
func (r *Repository) DeleteProduct(storeID int64, productID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM products WHERE id = $1 AND store_id = $2
		RETURNING images, variant_images
	`

	m := pgtype.NewMap()
	var images, variantImages []string
	if err := r.dbpool.QueryRowContext(ctx, query, productID, storeID).Scan(m.SQLScanner(&images), m.SQLScanner(&variantImages)); err != nil {
		return nil, err
	}

	return objectURLs(images, variantImages), nil
}

// 数组列不允许为 NULL，nil 切片需要写成空数组
func nonNilImages(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
