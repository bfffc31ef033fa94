package app

import (
	"context"
	"io"
	"testing"

	"teamtask/internal/config"
	"teamtask/internal/engine/auth"
)

func TestOpenAndEnsureCompany(t *testing.T) {
	a, err := Open(t.TempDir(), config.Default(), io.Discard)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()
	ctx := context.Background()
	c, owner, err := EnsureCompany(ctx, a.Engine, "Corner Cafe", "", "Owner@Cafe.test")
	if err != nil {
		t.Fatal(err)
	}
	if c.Slug != "corner-cafe" || owner.Role != auth.RoleOwner || owner.Email != "owner@cafe.test" {
		t.Fatalf("unexpected seed: %+v %+v", c, owner)
	}
	again, sameOwner, err := EnsureCompany(ctx, a.Engine, "Corner Cafe", "", "owner@cafe.test")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != c.ID || sameOwner.ID != owner.ID {
		t.Fatalf("seed not idempotent")
	}
}
