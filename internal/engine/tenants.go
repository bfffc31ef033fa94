package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"teamtask/internal/domain"
	"teamtask/internal/engine/auth"
	"teamtask/internal/events"
	"teamtask/internal/repo"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// CreateCompany registers a tenant. An empty slug is derived from the name.
func (e Engine) CreateCompany(ctx context.Context, name, slug string) (domain.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Company{}, ValidationError{Field: "name", Message: "name required"}
	}
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return domain.Company{}, ValidationError{Field: "slug", Message: "slug required"}
	}
	c := domain.Company{ID: newID(), Name: name, Slug: slug, CreatedAt: e.stamp()}
	if err := e.Repo.InsertCompany(ctx, nil, c); err != nil {
		return domain.Company{}, fmt.Errorf("insert company: %w", err)
	}
	return c, nil
}

func (e Engine) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	return e.Repo.ListCompanies(ctx)
}

// CreateUser adds a member to a company. Role defaults to member.
func (e Engine) CreateUser(ctx context.Context, companyID, email, displayName, role string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return domain.User{}, ValidationError{Field: "email", Message: "email required"}
	}
	if role == "" {
		role = auth.RoleMember
	}
	if !auth.ValidRole(role) {
		return domain.User{}, ValidationError{Field: "role", Message: fmt.Sprintf("role must be owner, manager or member (got %q)", role)}
	}
	if _, err := e.Repo.GetCompany(ctx, companyID); err != nil {
		return domain.User{}, notFound("company", err)
	}
	u := domain.User{
		ID:          newID(),
		CompanyID:   companyID,
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		Role:        role,
		CreatedAt:   e.stamp(),
	}
	if err := e.Repo.InsertUser(ctx, nil, u); err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (e Engine) ListUsers(ctx context.Context, companyID string) ([]domain.User, error) {
	return e.Repo.ListUsers(ctx, companyID)
}

// ActorFor resolves a user id to the actor it authenticates as.
func (e Engine) ActorFor(ctx context.Context, userID string) (auth.Actor, error) {
	u, err := e.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return auth.Actor{}, notFound("user", err)
	}
	return auth.Actor{UserID: u.ID, CompanyID: u.CompanyID, Role: u.Role}, nil
}

// CreateAPIKey issues a key for the actor. The plain key is returned once;
// only its hash is stored.
func (e Engine) CreateAPIKey(ctx context.Context, actor auth.Actor, name string) (domain.APIKey, string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return domain.APIKey{}, "", err
	}
	plain := "tt_" + hex.EncodeToString(buf)
	key := domain.APIKey{
		ID:        newID(),
		UserID:    actor.UserID,
		Name:      strings.TrimSpace(name),
		KeyHash:   repo.HashAPIKey(plain),
		CreatedAt: e.stamp(),
	}
	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.APIKey{}, "", err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := e.events().Append(ctx, tx, events.APIKeyCreated, actor.CompanyID, "api_key", key.ID, actor.UserID, events.EventPayload{"name": key.Name}); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return domain.APIKey{}, "", err
	}
	return key, plain, nil
}

// ActorForAPIKey authenticates a plain API key.
func (e Engine) ActorForAPIKey(ctx context.Context, plain string) (auth.Actor, error) {
	key, err := e.Repo.GetAPIKeyByHash(ctx, repo.HashAPIKey(plain))
	if err != nil {
		return auth.Actor{}, notFound("api key", err)
	}
	return e.ActorFor(ctx, key.UserID)
}

// ListAPIKeys lists the actor's keys, or every key of the company for managers.
func (e Engine) ListAPIKeys(ctx context.Context, actor auth.Actor) ([]domain.APIKey, error) {
	userID := actor.UserID
	if actor.IsManager() {
		userID = ""
	}
	return e.Repo.ListAPIKeys(ctx, actor.CompanyID, userID)
}

func (e Engine) DeleteAPIKey(ctx context.Context, actor auth.Actor, id string) error {
	if err := auth.RequireManager(actor); err != nil {
		return err
	}
	tx, err := e.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteAPIKey(ctx, tx, actor.CompanyID, id); err != nil {
		return notFound("api key", err)
	}
	if err := e.events().Append(ctx, tx, events.APIKeyDeleted, actor.CompanyID, "api_key", id, actor.UserID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// LatestEvents returns the company's latest audit events; managers only.
func (e Engine) LatestEvents(ctx context.Context, actor auth.Actor, limit int) ([]domain.Event, error) {
	if err := auth.RequireManager(actor); err != nil {
		return nil, err
	}
	return e.Repo.LatestEvents(ctx, actor.CompanyID, limit)
}
