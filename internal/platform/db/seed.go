package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"hrcore/internal/domain/auth"
	"hrcore/internal/platform/config"
)

type seedLeaveType struct {
	name        string
	entitlement int
	isPaid      bool
	counts      bool
}

var defaultLeaveTypes = []seedLeaveType{
	{name: "Annual Leave", entitlement: 20, isPaid: true, counts: true},
	{name: "Sick Leave", entitlement: 10, isPaid: true, counts: true},
	{name: "Unpaid Leave", entitlement: 0, isPaid: false, counts: false},
}

// Seed is idempotent; it fills an empty database and leaves an existing one
// alone.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureLeaveTypes(ctx, pool); err != nil {
		return err
	}
	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}
	return nil
}

func ensureLeaveTypes(ctx context.Context, pool *pgxpool.Pool) error {
	for _, lt := range defaultLeaveTypes {
		_, err := pool.Exec(ctx, `
      INSERT INTO leave_types (name, annual_entitlement_days, is_paid, counts_toward_entitlement, requires_approval)
      VALUES ($1, $2, $3, $4, TRUE)
      ON CONFLICT (name) DO NOTHING
    `, lt.name, lt.entitlement, lt.isPaid, lt.counts)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var existing string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&existing)
	if err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var employeeID string
	err = pool.QueryRow(ctx, `
    INSERT INTO employees (name, email, department, base_salary, is_active)
    VALUES ('System Administrator', $1, 'Administration', 0, TRUE)
    RETURNING id
  `, email).Scan(&employeeID)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, role, employee_id)
    VALUES ($1, $2, $3, $4)
  `, email, string(hash), auth.RoleMaster, employeeID)
	return err
}
