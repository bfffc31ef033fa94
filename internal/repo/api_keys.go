package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"teamtask/internal/domain"
)

// HashAPIKey returns a stable SHA-256 hex digest for the provided key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

// InsertAPIKey stores a hashed API key. KeyHash must already contain the hashed value.
func (r Repo) InsertAPIKey(ctx context.Context, tx *sqlx.Tx, key domain.APIKey) error {
	if key.ID == "" {
		return errors.New("id required")
	}
	if key.UserID == "" {
		return errors.New("user_id required")
	}
	if key.KeyHash == "" {
		return errors.New("key_hash required")
	}
	if key.CreatedAt == "" {
		key.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := exec(ctx, r.q(tx), `INSERT INTO api_keys(id, user_id, name, key_hash, created_at) VALUES (?,?,?,?,?)`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.CreatedAt)
	return err
}

// GetAPIKeyByHash returns an API key by its hashed value.
func (r Repo) GetAPIKeyByHash(ctx context.Context, hash string) (domain.APIKey, error) {
	var key domain.APIKey
	err := get(ctx, r.DB, &key, `SELECT id, user_id, name, key_hash, created_at FROM api_keys WHERE key_hash=?`, hash)
	return key, err
}

// ListAPIKeys returns the keys of the company's users, optionally filtered by user.
func (r Repo) ListAPIKeys(ctx context.Context, companyID, userID string) ([]domain.APIKey, error) {
	query := `SELECT k.id, k.user_id, k.name, k.key_hash, k.created_at
FROM api_keys k JOIN users u ON u.id = k.user_id
WHERE u.company_id=?`
	args := []any{companyID}
	if userID != "" {
		query += ` AND k.user_id=?`
		args = append(args, userID)
	}
	query += ` ORDER BY k.created_at DESC, k.id`
	keys := []domain.APIKey{}
	err := selectAll(ctx, r.DB, &keys, query, args...)
	return keys, err
}

// DeleteAPIKey deletes a key belonging to a user of the company.
func (r Repo) DeleteAPIKey(ctx context.Context, tx *sqlx.Tx, companyID, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("id required")
	}
	return execOne(ctx, r.q(tx), `DELETE FROM api_keys
WHERE id=? AND user_id IN (SELECT id FROM users WHERE company_id=?)`, id, companyID)
}
