package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/krishimithra/apiserver/types"
)

// ListingRepository handles persistence for listings.
type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) GetByID(ctx context.Context, id int) (types.Listing, error) {
	const query = `
		SELECT id, name, contact, tools, place, price, condition, image, owner_id, created_at, updated_at
		FROM listings
		WHERE id = $1`
	var listing types.Listing
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&listing.ID,
		&listing.Name,
		&listing.Contact,
		&listing.Tools,
		&listing.Place,
		&listing.Price,
		&listing.Condition,
		&listing.Image,
		&listing.OwnerID,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Listing{}, ErrNotFound
		}
		return types.Listing{}, err
	}
	return listing, nil
}

// List returns every listing. Ordering is by creation time, newest first
// when newestFirst is set, insertion order otherwise.
func (r *ListingRepository) List(ctx context.Context, newestFirst bool) ([]types.Listing, error) {
	query := `
		SELECT id, name, contact, tools, place, price, condition, image, owner_id, created_at, updated_at
		FROM listings
		ORDER BY created_at ASC, id ASC`
	if newestFirst {
		query = `
		SELECT id, name, contact, tools, place, price, condition, image, owner_id, created_at, updated_at
		FROM listings
		ORDER BY created_at DESC, id DESC`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]types.Listing, 0)
	for rows.Next() {
		var listing types.Listing
		if err := rows.Scan(
			&listing.ID,
			&listing.Name,
			&listing.Contact,
			&listing.Tools,
			&listing.Place,
			&listing.Price,
			&listing.Condition,
			&listing.Image,
			&listing.OwnerID,
			&listing.CreatedAt,
			&listing.UpdatedAt,
		); err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func (r *ListingRepository) Create(ctx context.Context, listing types.Listing) (types.Listing, error) {
	now := time.Now()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	const query = `
		INSERT INTO listings (name, contact, tools, place, price, condition, image, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		listing.Name,
		listing.Contact,
		listing.Tools,
		listing.Place,
		listing.Price,
		listing.Condition,
		listing.Image,
		listing.OwnerID,
		listing.CreatedAt,
		listing.UpdatedAt,
	).Scan(&listing.ID); err != nil {
		return types.Listing{}, err
	}
	return listing, nil
}

func (r *ListingRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM listings WHERE id = $1`
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
