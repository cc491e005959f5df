package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/repository"
)

const rentalColumns = `id, item_id, renter_id, owner_id, quantity, total_price_cents, status, scheduled_time, scheduled_location, pickup_token, return_token, version, created_on, updated_on`

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

func scanRental(s rowScanner) (*domain.Rental, error) {
	rt := &domain.Rental{Messages: []domain.RentalMessage{}}
	var scheduled sql.NullTime
	err := s.Scan(&rt.ID, &rt.ItemID, &rt.RenterID, &rt.OwnerID, &rt.Quantity, &rt.TotalPriceCents, &rt.Status,
		&scheduled, &rt.ScheduledLocation, &rt.PickupToken, &rt.ReturnToken, &rt.Version, &rt.CreatedOn, &rt.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if scheduled.Valid {
		t := scheduled.Time.UTC()
		rt.ScheduledTime = &t
	}
	return rt, nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	now := time.Now().UTC()
	rt.CreatedOn = now
	rt.UpdatedOn = now
	rt.Version = 1
	if rt.Messages == nil {
		rt.Messages = []domain.RentalMessage{}
	}

	query := `INSERT INTO rentals (` + rentalColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	logger.DatabaseCall("INSERT", "rentals", "rentalID", rt.ID)
	_, err := r.db.ExecContext(ctx, query, rt.ID, rt.ItemID, rt.RenterID, rt.OwnerID, rt.Quantity, rt.TotalPriceCents, rt.Status,
		nullTime(rt.ScheduledTime), rt.ScheduledLocation, rt.PickupToken, rt.ReturnToken, rt.Version, rt.CreatedOn, rt.UpdatedOn)
	logger.DatabaseResult("INSERT", 1, err, "rentalID", rt.ID)
	if err != nil {
		return errors.Wrap(err, "failed to insert rental")
	}
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "failed to load rental")
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, rental_id, sender_id, text, sent_at FROM rental_messages WHERE rental_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load rental messages")
	}
	defer rows.Close()
	for rows.Next() {
		var m domain.RentalMessage
		if err := rows.Scan(&m.ID, &m.RentalID, &m.SenderID, &m.Text, &m.Timestamp); err != nil {
			return nil, errors.Wrap(err, "failed to scan rental message")
		}
		rt.Messages = append(rt.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read rental messages")
	}
	return rt, nil
}

func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.Update", "rentalID", rt.ID, "version", rt.Version)
	now := time.Now().UTC()
	query := `UPDATE rentals
	          SET status = $1, scheduled_time = $2, scheduled_location = $3, pickup_token = $4, return_token = $5,
	              version = version + 1, updated_on = $6
	          WHERE id = $7 AND version = $8`
	logger.DatabaseCall("UPDATE", "rentals", "rentalID", rt.ID)
	res, err := r.db.ExecContext(ctx, query, rt.Status, nullTime(rt.ScheduledTime), rt.ScheduledLocation, rt.PickupToken, rt.ReturnToken, now, rt.ID, rt.Version)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "rentalID", rt.ID)
		return errors.Wrap(err, "failed to update rental")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	logger.DatabaseResult("UPDATE", affected, nil, "rentalID", rt.ID)

	if affected == 0 {
		var current int64
		err := r.db.QueryRowContext(ctx, `SELECT version FROM rentals WHERE id = $1`, rt.ID).Scan(&current)
		if err != nil {
			return notFound(err, "failed to check rental version")
		}
		logger.ExitMethodWithError("rentalRepository.Update", repository.ErrStaleRental, "rentalID", rt.ID, "storedVersion", current)
		return repository.ErrStaleRental
	}

	rt.Version++
	rt.UpdatedOn = now
	logger.ExitMethod("rentalRepository.Update", "rentalID", rt.ID, "version", rt.Version)
	return nil
}

// AppendMessage locks the parent row before inserting so message ids follow
// commit order within a rental.
func (r *rentalRepository) AppendMessage(ctx context.Context, msg *domain.RentalMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE rentals SET updated_on = $1 WHERE id = $2`, time.Now().UTC(), msg.RentalID)
	if err != nil {
		return errors.Wrap(err, "failed to lock rental")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	} else if n == 0 {
		return repository.ErrNotFound
	}

	query := `INSERT INTO rental_messages (rental_id, sender_id, text, sent_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := tx.QueryRowContext(ctx, query, msg.RentalID, msg.SenderID, msg.Text, msg.Timestamp).Scan(&msg.ID); err != nil {
		return errors.Wrap(err, "failed to insert rental message")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit rental message")
	}
	return nil
}

// ListByParty returns rentals without their transcripts.
func (r *rentalRepository) ListByParty(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := int64(page-1) * int64(pageSize)

	where := ` FROM rentals WHERE (renter_id = $1 OR owner_id = $1)`
	args := []any{userID}
	argIdx := 2
	if status != "" {
		where += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*)"+where, args...).Scan(&count); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count rentals")
	}
	if offset >= int64(count) {
		return []domain.Rental{}, count, nil
	}

	query := "SELECT " + rentalColumns + where + fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list rentals")
	}
	defer rows.Close()

	rentals := []domain.Rental{}
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan rental")
		}
		rentals = append(rentals, *rt)
	}
	return rentals, count, rows.Err()
}

func (r *rentalRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE status = $1 AND scheduled_time >= $2 AND scheduled_time < $3
	          ORDER BY scheduled_time`
	logger.DatabaseCall("SELECT", "rentals", "from", from, "to", to)
	rows, err := r.db.QueryContext(ctx, query, domain.RentalStatusScheduled, from, to)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, errors.Wrap(err, "failed to list scheduled rentals")
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan rental")
		}
		rentals = append(rentals, *rt)
	}
	logger.DatabaseResult("SELECT", int64(len(rentals)), rows.Err())
	return rentals, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
