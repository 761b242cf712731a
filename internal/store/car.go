package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carbrainiac/apiserver/types"
	"github.com/google/uuid"
)

// CarRepository handles persistence for car listings.
type CarRepository struct {
	db *sql.DB
}

func NewCarRepository(db *sql.DB) *CarRepository {
	return &CarRepository{db: db}
}

// buildCarFilter translates a validated CarFilter into a WHERE clause and
// its positional arguments. An empty filter yields an empty clause.
func buildCarFilter(filter types.CarFilter) (string, []any) {
	conditions := make([]string, 0, 6)
	args := make([]any, 0, 8)

	appendCondition := func(expr string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if filter.Make != "" {
		appendCondition("make = $%d", strings.ToLower(filter.Make))
	}
	if filter.CarModel != "" {
		appendCondition("model = $%d", strings.ToLower(filter.CarModel))
	}
	if filter.Availability != nil {
		appendCondition("availability = $%d", *filter.Availability)
	}

	for _, rangeField := range []struct {
		column string
		bounds *types.Range
	}{
		{"year", filter.Year},
		{"mileage", filter.Mileage},
		{"price", filter.Price},
	} {
		if rangeField.bounds == nil {
			continue
		}
		if rangeField.bounds.Min != nil {
			appendCondition(rangeField.column+" >= $%d", *rangeField.bounds.Min)
		}
		if rangeField.bounds.Max != nil {
			appendCondition(rangeField.column+" <= $%d", *rangeField.bounds.Max)
		}
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// buildCarOrder returns an ORDER BY clause for permitted sort keys only.
// Anything else leaves the storage default order in place, which is
// observable behavior and intentionally preserved.
func buildCarOrder(filter types.CarFilter) string {
	switch filter.SortBy {
	case types.SortByPrice, types.SortByMileage, types.SortByYear:
	default:
		return ""
	}
	direction := "ASC"
	if filter.Order == types.OrderDesc {
		direction = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", filter.SortBy, direction)
}

// List returns one page of matching cars plus the total count of matches.
// The count ignores the pagination window.
func (r *CarRepository) List(ctx context.Context, filter types.CarFilter) ([]types.Car, int, error) {
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where, args := buildCarFilter(filter)

	countQuery := "SELECT COUNT(1) FROM cars" + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`
		SELECT id, make, model, year, mileage, price, description, availability, pictures, seller_id, created_at, updated_at
		FROM cars%s%s
		OFFSET $%d LIMIT $%d`,
		where, buildCarOrder(filter), len(args)+1, len(args)+2)
	args = append(args, filter.Offset, filter.Limit)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	cars := make([]types.Car, 0, filter.Limit)
	for rows.Next() {
		var car types.Car
		var picturesJSON []byte
		if err := rows.Scan(
			&car.ID,
			&car.Make,
			&car.CarModel,
			&car.Year,
			&car.Mileage,
			&car.Price,
			&car.Description,
			&car.Availability,
			&picturesJSON,
			&car.SellerID,
			&car.CreatedAt,
			&car.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		if car.Pictures, err = decodePictures(picturesJSON); err != nil {
			return nil, 0, err
		}
		cars = append(cars, car)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return cars, total, nil
}

// Get fetches a single car with its seller populated (name and email only).
func (r *CarRepository) Get(ctx context.Context, id uuid.UUID) (types.Car, error) {
	const query = `
		SELECT c.id, c.make, c.model, c.year, c.mileage, c.price, c.description, c.availability, c.pictures, c.seller_id, c.created_at, c.updated_at,
			u.name, u.email
		FROM cars c
		LEFT JOIN users u ON u.id = c.seller_id
		WHERE c.id = $1`

	var car types.Car
	var picturesJSON []byte
	var sellerName, sellerEmail sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&car.ID,
		&car.Make,
		&car.CarModel,
		&car.Year,
		&car.Mileage,
		&car.Price,
		&car.Description,
		&car.Availability,
		&picturesJSON,
		&car.SellerID,
		&car.CreatedAt,
		&car.UpdatedAt,
		&sellerName,
		&sellerEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Car{}, ErrNotFound
		}
		return types.Car{}, err
	}

	if car.Pictures, err = decodePictures(picturesJSON); err != nil {
		return types.Car{}, err
	}
	if sellerName.Valid {
		car.Seller = &types.Seller{Name: sellerName.String, Email: sellerEmail.String}
	}
	return car, nil
}

func (r *CarRepository) Create(ctx context.Context, car types.Car) (types.Car, error) {
	now := time.Now()
	car.CreatedAt = now
	car.UpdatedAt = now
	car.Make = strings.ToLower(car.Make)
	car.CarModel = strings.ToLower(car.CarModel)

	if car.Pictures == nil {
		car.Pictures = []string{}
	}
	picturesJSON, err := json.Marshal(car.Pictures)
	if err != nil {
		return types.Car{}, err
	}

	const query = `
		INSERT INTO cars (make, model, year, mileage, price, description, availability, pictures, seller_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		car.Make,
		car.CarModel,
		car.Year,
		car.Mileage,
		car.Price,
		car.Description,
		car.Availability,
		picturesJSON,
		car.SellerID,
		car.CreatedAt,
		car.UpdatedAt,
	).Scan(&car.ID); err != nil {
		return types.Car{}, err
	}

	return car, nil
}

// Update replaces the mutable columns and reads the immutable ones back,
// so the returned struct is the complete row, not just the input.
func (r *CarRepository) Update(ctx context.Context, car types.Car) (types.Car, error) {
	car.UpdatedAt = time.Now()
	car.Make = strings.ToLower(car.Make)
	car.CarModel = strings.ToLower(car.CarModel)

	const query = `
		UPDATE cars
		SET make = $1,
			model = $2,
			year = $3,
			mileage = $4,
			price = $5,
			description = $6,
			availability = $7,
			updated_at = $8
		WHERE id = $9
		RETURNING pictures, seller_id, created_at`
	var picturesJSON []byte
	err := r.db.QueryRowContext(
		ctx,
		query,
		car.Make,
		car.CarModel,
		car.Year,
		car.Mileage,
		car.Price,
		car.Description,
		car.Availability,
		car.UpdatedAt,
		car.ID,
	).Scan(&picturesJSON, &car.SellerID, &car.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Car{}, ErrNotFound
		}
		return types.Car{}, err
	}
	if car.Pictures, err = decodePictures(picturesJSON); err != nil {
		return types.Car{}, err
	}
	return car, nil
}

// decodePictures unpacks the pictures JSONB column. A corrupted column is
// a storage error, never an empty slice.
func decodePictures(picturesJSON []byte) ([]string, error) {
	if len(picturesJSON) == 0 {
		return []string{}, nil
	}
	var pictures []string
	if err := json.Unmarshal(picturesJSON, &pictures); err != nil {
		return nil, fmt.Errorf("decode pictures column: %w", err)
	}
	return pictures, nil
}

func (r *CarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM cars WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
