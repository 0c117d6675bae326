// repository/catalog/catalogRepository.go
package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
)

// DB matches the *pgxpool.Pool methods this repo uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repo interface {
	// Products & cameras
	CreateProduct(ctx context.Context, p *model.Product) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	GetProducts(ctx context.Context, ids []int64) ([]model.Product, error)
	AddCameras(ctx context.Context, productID int64, n int) (int64, error)
	ListCamerasByProduct(ctx context.Context, productID int64) ([]model.Camera, error)
	GetCameras(ctx context.Context, ids []int64) ([]model.Camera, error)

	// Accessories & instances
	CreateAccessory(ctx context.Context, a *model.Accessory) error
	ListAccessories(ctx context.Context) ([]model.Accessory, error)
	GetAccessories(ctx context.Context, ids []int64) ([]model.Accessory, error)
	AddAccessoryInstances(ctx context.Context, accessoryID int64, n int) (int64, error)
	ListAccessoryInstances(ctx context.Context, accessoryID int64, onlyInRotation bool) ([]model.AccessoryInstance, error)
	GetAccessoryInstances(ctx context.Context, ids []int64) ([]model.AccessoryInstance, error)
	RetireAccessoryInstance(ctx context.Context, id int64) error
}

type repo struct{ db DB }

func New(db DB) Repo { return &repo{db} }

// Products & cameras

func (r *repo) CreateProduct(ctx context.Context, p *model.Product) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO products(name, quantity, price_daily, price_weekly, price_two_weeks)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`,
		p.Name, p.Quantity, p.PriceDaily, p.PriceWeekly, p.PriceTwoWeeks,
	).Scan(&p.ID)
}

func (r *repo) ListProducts(ctx context.Context) ([]model.Product, error) {
	const q = `
		SELECT id, name, quantity, price_daily, price_weekly, price_two_weeks
		FROM products
		ORDER BY id`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *repo) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	p := &model.Product{}
	err := r.db.QueryRow(ctx, `
		SELECT id, name, quantity, price_daily, price_weekly, price_two_weeks
		FROM products
		WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Quantity, &p.PriceDaily, &p.PriceWeekly, &p.PriceTwoWeeks)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repo) GetProducts(ctx context.Context, ids []int64) ([]model.Product, error) {
	const q = `
		SELECT id, name, quantity, price_daily, price_weekly, price_two_weeks
		FROM products
		WHERE id = ANY($1)
		ORDER BY id`
	rows, err := r.db.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]model.Product, error) {
	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.PriceDaily, &p.PriceWeekly, &p.PriceTwoWeeks); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repo) AddCameras(ctx context.Context, productID int64, n int) (int64, error) {
	const q = `
		INSERT INTO cameras(product_id)
		SELECT $1 FROM generate_series(1, $2)`
	tag, err := r.db.Exec(ctx, q, productID, n)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repo) ListCamerasByProduct(ctx context.Context, productID int64) ([]model.Camera, error) {
	const q = `
		SELECT id, product_id, price_override
		FROM cameras
		WHERE product_id = $1
		ORDER BY id`
	rows, err := r.db.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Camera
	for rows.Next() {
		var c model.Camera
		if err := rows.Scan(&c.ID, &c.ProductID, &c.PriceOverride); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repo) GetCameras(ctx context.Context, ids []int64) ([]model.Camera, error) {
	const q = `
		SELECT id, product_id, price_override
		FROM cameras
		WHERE id = ANY($1)
		ORDER BY id`
	rows, err := r.db.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Camera
	for rows.Next() {
		var c model.Camera
		if err := rows.Scan(&c.ID, &c.ProductID, &c.PriceOverride); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Accessories & instances

func (r *repo) CreateAccessory(ctx context.Context, a *model.Accessory) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO accessories(name, quantity, price)
		VALUES ($1,$2,$3)
		RETURNING id`,
		a.Name, a.Quantity, a.Price,
	).Scan(&a.ID)
}

func (r *repo) ListAccessories(ctx context.Context) ([]model.Accessory, error) {
	const q = `
		SELECT id, name, quantity, price
		FROM accessories
		ORDER BY id`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccessories(rows)
}

func (r *repo) GetAccessories(ctx context.Context, ids []int64) ([]model.Accessory, error) {
	const q = `
		SELECT id, name, quantity, price
		FROM accessories
		WHERE id = ANY($1)
		ORDER BY id`
	rows, err := r.db.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccessories(rows)
}

func scanAccessories(rows pgx.Rows) ([]model.Accessory, error) {
	var out []model.Accessory
	for rows.Next() {
		var a model.Accessory
		if err := rows.Scan(&a.ID, &a.Name, &a.Quantity, &a.Price); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repo) AddAccessoryInstances(ctx context.Context, accessoryID int64, n int) (int64, error) {
	const q = `
		INSERT INTO accessory_instances(accessory_id)
		SELECT $1 FROM generate_series(1, $2)`
	tag, err := r.db.Exec(ctx, q, accessoryID, n)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repo) ListAccessoryInstances(ctx context.Context, accessoryID int64, onlyInRotation bool) ([]model.AccessoryInstance, error) {
	q := `
		SELECT id, accessory_id, is_available
		FROM accessory_instances
		WHERE accessory_id = $1`
	if onlyInRotation {
		q += ` AND is_available = true`
	}
	q += ` ORDER BY id`

	rows, err := r.db.Query(ctx, q, accessoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AccessoryInstance
	for rows.Next() {
		var ai model.AccessoryInstance
		if err := rows.Scan(&ai.ID, &ai.AccessoryID, &ai.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, ai)
	}
	return out, rows.Err()
}

func (r *repo) GetAccessoryInstances(ctx context.Context, ids []int64) ([]model.AccessoryInstance, error) {
	const q = `
		SELECT id, accessory_id, is_available
		FROM accessory_instances
		WHERE id = ANY($1)
		ORDER BY id`
	rows, err := r.db.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AccessoryInstance
	for rows.Next() {
		var ai model.AccessoryInstance
		if err := rows.Scan(&ai.ID, &ai.AccessoryID, &ai.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, ai)
	}
	return out, rows.Err()
}

func (r *repo) RetireAccessoryInstance(ctx context.Context, id int64) error {
	const q = `
		UPDATE accessory_instances
		SET is_available = false
		WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}
