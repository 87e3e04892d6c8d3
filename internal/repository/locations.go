package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

func (r *Repository) GetDeliveryLocations(storeID *int64) ([]*domain.DeliveryLocation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	// storeID 为空时返回所有店铺的配送地点
	query := `
		SELECT id, store_id, province, city, suburb, postal_code, price::float8, estimated_time
		FROM delivery_locations
		WHERE $1::bigint IS NULL OR store_id = $1
		ORDER BY store_id, id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := make([]*domain.DeliveryLocation, 0)
	for rows.Next() {
		l := &domain.DeliveryLocation{}
		dst := []any{&l.ID, &l.StoreID, &l.Province, &l.City, &l.Suburb, &l.PostalCode, &l.Price, &l.EstimatedTime}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return locations, nil
}

func (r *Repository) CreateDeliveryLocation(l *domain.DeliveryLocation) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO delivery_locations (store_id, province, city, suburb, postal_code, price, estimated_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	args := []any{l.StoreID, l.Province, l.City, l.Suburb, l.PostalCode, l.Price, l.EstimatedTime}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&l.ID); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateDeliveryLocation(l *domain.DeliveryLocation) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE delivery_locations
		SET province = $1, city = $2, suburb = $3, postal_code = $4, price = $5, estimated_time = $6
		WHERE id = $7 AND store_id = $8
	`
	args := []any{l.Province, l.City, l.Suburb, l.PostalCode, l.Price, l.EstimatedTime, l.ID, l.StoreID}
	result, err := r.dbpool.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

func (r *Repository) DeleteDeliveryLocation(storeID int64, id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM delivery_locations WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

func (r *Repository) GetDropoffLocations(storeID *int64) ([]*domain.DropoffLocation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, store_id, province, city, suburb, postal_code, street_address, price::float8, notes
		FROM dropoff_locations
		WHERE $1::bigint IS NULL OR store_id = $1
		ORDER BY store_id, id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := make([]*domain.DropoffLocation, 0)
	for rows.Next() {
		l := &domain.DropoffLocation{}
		dst := []any{&l.ID, &l.StoreID, &l.Province, &l.City, &l.Suburb, &l.PostalCode, &l.StreetAddress, &l.Price, &l.Notes}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return locations, nil
}

func (r *Repository) CreateDropoffLocation(l *domain.DropoffLocation) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO dropoff_locations (store_id, province, city, suburb, postal_code, street_address, price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	args := []any{l.StoreID, l.Province, l.City, l.Suburb, l.PostalCode, l.StreetAddress, l.Price, l.Notes}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&l.ID); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateDropoffLocation(l *domain.DropoffLocation) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE dropoff_locations
		SET province = $1, city = $2, suburb = $3, postal_code = $4, street_address = $5, price = $6, notes = $7
		WHERE id = $8 AND store_id = $9
	`
	args := []any{l.Province, l.City, l.Suburb, l.PostalCode, l.StreetAddress, l.Price, l.Notes, l.ID, l.StoreID}
	result, err := r.dbpool.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

func (r *Repository) DeleteDropoffLocation(storeID int64, id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM dropoff_locations WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

// requireAffected 没有行被修改时返回 sql.ErrNoRows，方便 handler 统一处理
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
