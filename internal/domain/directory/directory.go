// Package directory is a read-only view over the employee roster. It carries
// no business rules; the leave and payroll engines treat it as an external
// collaborator.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"hrcore/internal/platform/querier"
)

var ErrEmployeeNotFound = errors.New("employee not found")

type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	BaseSalary float64   `json:"baseSalary"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeColumns = `id, name, email, department, base_salary, is_active, created_at`

func (s *Store) ActiveEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE is_active = TRUE
		ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.BaseSalary, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE id = $1`, employeeID).
		Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.BaseSalary, &e.IsActive, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return e, nil
}

// ResolveEmployeeByUserID maps an authenticated user to their employee record.
func (s *Store) ResolveEmployeeByUserID(ctx context.Context, userID string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
		SELECT e.id, e.name, e.email, e.department, e.base_salary, e.is_active, e.created_at
		FROM employees e
		JOIN users u ON u.employee_id = e.id
		WHERE u.id = $1`, userID).
		Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.BaseSalary, &e.IsActive, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return e, nil
}
