package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/database"
	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrAddressNotFound     = errors.New("address not found")
	ErrAddressLimitReached = errors.New("address limit reached")
)

// AddressRepository defines the interface for the address book. Writes for one
// user are serialised by locking the user row, so the limit and the single
// main address hold under concurrent requests.
type AddressRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error)
	FindMain(ctx context.Context, userID uuid.UUID) (*domain.Address, error)
	Create(ctx context.Context, address *domain.Address) error
	Update(ctx context.Context, address *domain.Address) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetMain(ctx context.Context, userID, id uuid.UUID) error
}

type addressRepository struct {
	db *sql.DB
}

// NewAddressRepository creates a new instance of AddressRepository
func NewAddressRepository(db *sql.DB) AddressRepository {
	return &addressRepository{db: db}
}

const addressColumns = `id, user_id, recipient, phone, line1, line2, city, province, postal_code, is_main, created_at, updated_at`

func scanAddress(row rowScanner) (*domain.Address, error) {
	a := &domain.Address{}
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Recipient,
		&a.Phone,
		&a.Line1,
		&a.Line2,
		&a.City,
		&a.Province,
		&a.PostalCode,
		&a.IsMain,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

func lockUser(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

func clearMain(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `UPDATE addresses SET is_main = FALSE WHERE user_id = $1 AND is_main`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear main address: %w", err)
	}
	return nil
}

// ListByUser returns the main address first, then the rest oldest first.
func (r *addressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+addressColumns+` FROM addresses
		WHERE user_id = $1
		ORDER BY is_main DESC, created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []*domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

func (r *addressRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to find address: %w", err)
	}
	return a, nil
}

func (r *addressRepository) FindMain(ctx context.Context, userID uuid.UUID) (*domain.Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 AND is_main`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to find main address: %w", err)
	}
	return a, nil
}

// Create enforces the per-user limit. The first address is always main; a
// later one marked main takes the flag over.
func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockUser(ctx, tx, address.UserID); err != nil {
			return err
		}

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, address.UserID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if count >= domain.MaxAddressesPerUser {
			return ErrAddressLimitReached
		}

		if count == 0 {
			address.IsMain = true
		} else if address.IsMain {
			if err := clearMain(ctx, tx, address.UserID); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO addresses (`+addressColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			address.ID,
			address.UserID,
			address.Recipient,
			address.Phone,
			address.Line1,
			address.Line2,
			address.City,
			address.Province,
			address.PostalCode,
			address.IsMain,
			address.CreatedAt,
			address.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
}

// Update rewrites the address fields. IsMain=true promotes the address;
// IsMain=false never demotes it, since a user must keep one main address.
func (r *addressRepository) Update(ctx context.Context, address *domain.Address) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockUser(ctx, tx, address.UserID); err != nil {
			return err
		}

		if address.IsMain {
			if err := clearMain(ctx, tx, address.UserID); err != nil {
				return err
			}
		}

		err := tx.QueryRowContext(ctx, `
			UPDATE addresses
			SET recipient = $3, phone = $4, line1 = $5, line2 = $6, city = $7,
			    province = $8, postal_code = $9, is_main = is_main OR $10, updated_at = $11
			WHERE id = $1 AND user_id = $2
			RETURNING is_main, created_at
		`,
			address.ID,
			address.UserID,
			address.Recipient,
			address.Phone,
			address.Line1,
			address.Line2,
			address.City,
			address.Province,
			address.PostalCode,
			address.IsMain,
			address.UpdatedAt,
		).Scan(&address.IsMain, &address.CreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAddressNotFound
			}
			return fmt.Errorf("failed to update address: %w", err)
		}
		return nil
	})
}

// Delete removes an address; if it was main, the oldest remaining one is promoted.
func (r *addressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		var wasMain bool
		err := tx.QueryRowContext(ctx, `
			DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING is_main
		`, id, userID).Scan(&wasMain)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAddressNotFound
			}
			return fmt.Errorf("failed to delete address: %w", err)
		}

		if !wasMain {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE addresses SET is_main = TRUE, updated_at = $2
			WHERE id = (
				SELECT id FROM addresses WHERE user_id = $1 ORDER BY created_at ASC, id ASC LIMIT 1
			)
		`, userID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to promote address: %w", err)
		}
		return nil
	})
}

func (r *addressRepository) SetMain(ctx context.Context, userID, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		var exists bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)
		`, id, userID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check address: %w", err)
		}
		if !exists {
			return ErrAddressNotFound
		}

		if err := clearMain(ctx, tx, userID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE addresses SET is_main = TRUE, updated_at = $3 WHERE id = $1 AND user_id = $2
		`, id, userID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to set main address: %w", err)
		}
		return nil
	})
}
