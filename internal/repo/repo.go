package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"teamtask/internal/domain"
)

// Repo holds every SQL statement of the service. Tenant-scoped reads and
// writes always filter by company_id.
type Repo struct {
	DB *sqlx.DB
}

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// q returns tx when set, else the pool.
func (r Repo) q(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.DB
}

func get(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func selectAll(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (sql.Result, error) {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil && isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return res, err
}

// execOne runs a write that must touch exactly one row.
func execOne(ctx context.Context, q sqlx.ExtContext, query string, args ...any) error {
	res, err := exec(ctx, q, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation recognises unique/primary key violations from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (r Repo) InsertCompany(ctx context.Context, tx *sqlx.Tx, c domain.Company) error {
	_, err := exec(ctx, r.q(tx), `INSERT INTO companies(id,name,slug,created_at) VALUES (?,?,?,?)`,
		c.ID, c.Name, c.Slug, c.CreatedAt)
	return err
}

func (r Repo) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	var c domain.Company
	err := get(ctx, r.DB, &c, `SELECT id,name,slug,created_at FROM companies WHERE id=?`, id)
	return c, err
}

func (r Repo) GetCompanyBySlug(ctx context.Context, slug string) (domain.Company, error) {
	var c domain.Company
	err := get(ctx, r.DB, &c, `SELECT id,name,slug,created_at FROM companies WHERE slug=?`, slug)
	return c, err
}

func (r Repo) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	res := []domain.Company{}
	err := selectAll(ctx, r.DB, &res, `SELECT id,name,slug,created_at FROM companies ORDER BY name, id`)
	return res, err
}

func (r Repo) InsertUser(ctx context.Context, tx *sqlx.Tx, u domain.User) error {
	_, err := exec(ctx, r.q(tx), `INSERT INTO users(id,company_id,email,display_name,role,created_at) VALUES (?,?,?,?,?,?)`,
		u.ID, u.CompanyID, u.Email, u.DisplayName, u.Role, u.CreatedAt)
	return err
}

const userColumns = `id,company_id,email,display_name,role,created_at`

// GetUser returns a user of the given company.
func (r Repo) GetUser(ctx context.Context, tx *sqlx.Tx, companyID, userID string) (domain.User, error) {
	var u domain.User
	err := get(ctx, r.q(tx), &u, `SELECT `+userColumns+` FROM users WHERE id=? AND company_id=?`, userID, companyID)
	return u, err
}

// GetUserByID looks a user up without tenant scope; only authentication uses it.
func (r Repo) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	var u domain.User
	err := get(ctx, r.DB, &u, `SELECT `+userColumns+` FROM users WHERE id=?`, userID)
	return u, err
}

func (r Repo) GetUserByEmail(ctx context.Context, companyID, email string) (domain.User, error) {
	var u domain.User
	err := get(ctx, r.DB, &u, `SELECT `+userColumns+` FROM users WHERE company_id=? AND email=?`, companyID, email)
	return u, err
}

func (r Repo) ListUsers(ctx context.Context, companyID string) ([]domain.User, error) {
	res := []domain.User{}
	err := selectAll(ctx, r.DB, &res, `SELECT `+userColumns+` FROM users WHERE company_id=? ORDER BY display_name, id`, companyID)
	return res, err
}
