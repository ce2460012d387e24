package account

import (
	"context"
	"fmt"

	"mediguru/internal/auth"
)

// SeedAdmin makes sure a bootstrap administrator exists. It is a no-op when
// email or password is empty.
func SeedAdmin(ctx context.Context, repo *Repository, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if name == "" {
		name = "Administrator"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := repo.EnsureUser(ctx, name, email, hash, "admin"); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
