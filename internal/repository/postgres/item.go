package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/repository"
)

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	it.CreatedOn = time.Now().UTC()
	query := `INSERT INTO items (id, owner_id, title, description, category, course_code, condition, price_cents, price_type, is_available, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	logger.DatabaseCall("INSERT", "items", "itemID", it.ID, "ownerID", it.OwnerID)
	_, err := r.db.ExecContext(ctx, query, it.ID, it.OwnerID, it.Title, it.Description, it.Category, it.CourseCode, it.Condition,
		it.PriceCents, it.PriceType, it.IsAvailable, it.CreatedOn)
	logger.DatabaseResult("INSERT", 1, err, "itemID", it.ID)
	if err != nil {
		return errors.Wrap(err, "failed to insert item")
	}
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	it := &domain.Item{}
	query := `SELECT id, owner_id, title, description, category, course_code, condition, price_cents, price_type, is_available, created_on
	          FROM items WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&it.ID, &it.OwnerID, &it.Title, &it.Description, &it.Category, &it.CourseCode,
		&it.Condition, &it.PriceCents, &it.PriceType, &it.IsAvailable, &it.CreatedOn)
	if err != nil {
		return nil, notFound(err, "failed to load item")
	}
	return it, nil
}
