package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ckumar010398/accounts-ms/internal/models"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// CustomerWriteRepository persists customers in PostgreSQL.
type CustomerWriteRepository struct {
	db *sql.DB
}

func NewCustomerWriteRepository(db *sql.DB) *CustomerWriteRepository {
	return &CustomerWriteRepository{db: db}
}

const customerColumns = `customer_id, name, email, mobile_number, created_at, created_by, updated_at, updated_by`

func (r *CustomerWriteRepository) FindByMobileNumber(ctx context.Context, mobileNumber string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE mobile_number = $1`
	return scanCustomer(conn(ctx, r.db).QueryRowContext(ctx, query, mobileNumber))
}

func (r *CustomerWriteRepository) FindByID(ctx context.Context, customerID int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE customer_id = $1`
	return scanCustomer(conn(ctx, r.db).QueryRowContext(ctx, query, customerID))
}

// Save inserts the customer when it has no id yet and updates it otherwise.
// A clash on the mobile number index is reported as models.ErrDuplicateMobileNumber.
func (r *CustomerWriteRepository) Save(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if customer.CustomerID == 0 {
		return r.insert(ctx, customer)
	}
	return r.update(ctx, customer)
}

func (r *CustomerWriteRepository) insert(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	query := `
		INSERT INTO customers (name, email, mobile_number, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING customer_id
	`
	saved := *customer
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		customer.Name, customer.Email, customer.MobileNumber, customer.CreatedAt, customer.CreatedBy,
	).Scan(&saved.CustomerID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateMobileNumber
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &saved, nil
}

func (r *CustomerWriteRepository) update(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	query := `
		UPDATE customers
		SET name = $2, email = $3, mobile_number = $4, updated_at = $5, updated_by = $6
		WHERE customer_id = $1
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		customer.CustomerID, customer.Name, customer.Email, customer.MobileNumber,
		nullTime(customer.UpdatedAt), nullString(customer.UpdatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateMobileNumber
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return nil, models.ErrRecordNotFound
	}
	saved := *customer
	return &saved, nil
}

// DeleteByID does not report whether a row was removed.
// DeleteByID fails with models.ErrCustomerHasAccounts while the accounts
// foreign key still references the customer.
func (r *CustomerWriteRepository) DeleteByID(ctx context.Context, customerID int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM customers WHERE customer_id = $1`, customerID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("failed to delete customer %d: %w", customerID, models.ErrCustomerHasAccounts)
	}
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

func scanCustomer(row *sql.Row) (*models.Customer, error) {
	var c models.Customer
	var updatedAt sql.NullTime
	var updatedBy sql.NullString
	err := row.Scan(
		&c.CustomerID, &c.Name, &c.Email, &c.MobileNumber,
		&c.CreatedAt, &c.CreatedBy, &updatedAt, &updatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	c.UpdatedAt = updatedAt.Time
	c.UpdatedBy = updatedBy.String
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
