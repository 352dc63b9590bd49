package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ckumar010398/accounts-ms/internal/models"
)

// AccountWriteRepository persists accounts in PostgreSQL.
type AccountWriteRepository struct {
	db *sql.DB
}

func NewAccountWriteRepository(db *sql.DB) *AccountWriteRepository {
	return &AccountWriteRepository{db: db}
}

const accountColumns = `account_number, customer_id, account_type, branch_address, created_at, created_by, updated_at, updated_by`

func (r *AccountWriteRepository) FindByID(ctx context.Context, accountNumber int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(conn(ctx, r.db).QueryRowContext(ctx, query, accountNumber))
}

// FindByCustomerID returns the customer's oldest account.
func (r *AccountWriteRepository) FindByCustomerID(ctx context.Context, customerID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1 ORDER BY created_at LIMIT 1`
	return scanAccount(conn(ctx, r.db).QueryRowContext(ctx, query, customerID))
}

// Save inserts the account, or updates type and branch address when a row
// with the same number already belongs to the same customer. A number held by
// another customer yields models.ErrAccountNumberTaken and leaves that row alone;
// an unknown customer yields models.ErrRecordNotFound.
func (r *AccountWriteRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (account_number, customer_id, account_type, branch_address, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_number) DO UPDATE
		SET account_type = EXCLUDED.account_type,
			branch_address = EXCLUDED.branch_address,
			updated_at = $7,
			updated_by = $8
		WHERE accounts.customer_id = EXCLUDED.customer_id
		RETURNING created_at, created_by
	`
	saved := *account
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		account.AccountNumber, account.CustomerID, account.AccountType, account.BranchAddress,
		account.CreatedAt, account.CreatedBy,
		nullTime(account.UpdatedAt), nullString(account.UpdatedBy),
	).Scan(&saved.CreatedAt, &saved.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNumberTaken
	}
	if isForeignKeyViolation(err) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	return &saved, nil
}

// DeleteByCustomerID removes every account of the customer and does not
// report how many rows went.
func (r *AccountWriteRepository) DeleteByCustomerID(ctx context.Context, customerID int64) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM accounts WHERE customer_id = $1`, customerID); err != nil {
		return fmt.Errorf("failed to delete accounts: %w", err)
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	var updatedAt sql.NullTime
	var updatedBy sql.NullString
	err := row.Scan(
		&a.AccountNumber, &a.CustomerID, &a.AccountType, &a.BranchAddress,
		&a.CreatedAt, &a.CreatedBy, &updatedAt, &updatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	a.UpdatedAt = updatedAt.Time
	a.UpdatedBy = updatedBy.String
	return &a, nil
}
