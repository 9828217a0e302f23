// Package main provides a CLI tool for creating the schema and seeding the
// database with an admin user, a department tree, roles and menu labels.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"easyadmin/internal/core/security"
	"easyadmin/internal/infrastructure/storage/postgres"
	"easyadmin/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalw("failed to create schema", "error", err)
	}
	log.Info("schema ready")

	orgs, err := seedOrgs(ctx, pool)
	if err != nil {
		log.Fatalw("failed to seed departments", "error", err)
	}

	if err := seedRoles(ctx, pool, orgs); err != nil {
		log.Fatalw("failed to seed roles", "error", err)
	}

	adminID, err := seedAdminUser(ctx, pool, log, orgs["Head Office"])
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if err := seedMenus(ctx, pool); err != nil {
		log.Warnw("failed to seed menu labels", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoUsers(ctx, pool, log, adminID, orgs); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedOrgs creates a small department tree and returns name -> id.
func seedOrgs(ctx context.Context, pool *postgres.Pool) (map[string]int64, error) {
	tree := []struct {
		name   string
		parent string
	}{
		{"Head Office", ""},
		{"Sales", "Head Office"},
		{"Sales North", "Sales"},
		{"Sales South", "Sales"},
		{"Finance", "Head Office"},
	}

	ids := make(map[string]int64, len(tree))
	for _, o := range tree {
		var orgID int64
		err := pool.QueryRow(ctx, `SELECT id FROM sys_org WHERE name = $1`, o.name).Scan(&orgID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("check org %s: %w", o.name, err)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			var parent *int64
			if o.parent != "" {
				p := ids[o.parent]
				parent = &p
			}
			if err := pool.QueryRow(ctx,
				`INSERT INTO sys_org (parent_id, name) VALUES ($1, $2) RETURNING id`,
				parent, o.name,
			).Scan(&orgID); err != nil {
				return nil, fmt.Errorf("insert org %s: %w", o.name, err)
			}
		}
		ids[o.name] = orgID
	}
	return ids, nil
}

func seedRoles(ctx context.Context, pool *postgres.Pool, orgs map[string]int64) error {
	roles := []struct {
		code   string
		name   string
		scope  security.DataScope
		custom string
	}{
		{"admin", "Administrator", security.AllData, ""},
		{"manager", "Department Manager", security.DeptAndBelow, ""},
		{"clerk", "Department Clerk", security.DeptOnly, ""},
		{"staff", "Staff", security.SelfOnly, ""},
		{"auditor", "Finance Auditor", security.Custom, fmt.Sprintf("%d,%d", orgs["Finance"], orgs["Head Office"])},
	}

	for _, r := range roles {
		_, err := pool.Exec(ctx, `
			INSERT INTO sys_role (code, name, data_scope, custom_org_ids)
			VALUES ($1, $2, $3, NULLIF($4, ''))
			ON CONFLICT (code) DO NOTHING
		`, r.code, r.name, int(r.scope), r.custom)
		if err != nil {
			return fmt.Errorf("insert role %s: %w", r.code, err)
		}
	}
	return nil
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger, orgID int64) (int64, error) {
	adminName := os.Getenv("ADMIN_USER")
	if adminName == "" {
		adminName = "admin"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID int64
	err := pool.QueryRow(ctx, `SELECT id FROM sys_user WHERE user_name = $1`, adminName).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "user_name", adminName, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var userID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO sys_user (user_name, nick_name, password_hash, created_user_name, org_id)
		VALUES ($1, 'System Admin', $2, 'seed', $3)
		RETURNING id
	`, adminName, string(passwordHash), orgID).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("insert admin user: %w", err)
	}

	if err := assignRole(ctx, pool, userID, "admin"); err != nil {
		log.Warnw("failed to assign admin role", "error", err)
	}

	log.Infow("admin user created",
		"user_name", adminName,
		"user_id", userID,
	)

	return userID, nil
}

func assignRole(ctx context.Context, pool *postgres.Pool, userID int64, code string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO sys_user_role (user_id, role_id)
		SELECT $1, id FROM sys_role WHERE code = $2
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, userID, code)
	return err
}

// seedMenus labels the audited routes so operation log descriptions read well.
func seedMenus(ctx context.Context, pool *postgres.Pool) error {
	menus := map[string]string{
		"/api/v1/users/query":  "users",
		"/api/v1/users":        "user",
		"/api/v1/users/:id":    "user",
		"/api/v1/users/export": "users",
	}
	for path, label := range menus {
		if _, err := pool.Exec(ctx, `
			INSERT INTO sys_menu (path, label) VALUES ($1, $2)
			ON CONFLICT (path) DO NOTHING
		`, path, label); err != nil {
			return fmt.Errorf("insert menu %s: %w", path, err)
		}
	}
	return nil
}

// seedDemoUsers adds one user per department and role so every data scope
// has rows to see.
func seedDemoUsers(ctx context.Context, pool *postgres.Pool, log *logger.Logger, adminID int64, orgs map[string]int64) error {
	log.Info("seeding demo users...")

	demo := []struct {
		name string
		org  string
		role string
	}{
		{"north.manager", "Sales North", "clerk"},
		{"sales.manager", "Sales", "manager"},
		{"south.staff", "Sales South", "staff"},
		{"finance.auditor", "Finance", "auditor"},
	}

	for _, d := range demo {
		var userID int64
		err := pool.QueryRow(ctx, `
			INSERT INTO sys_user (user_name, nick_name, email, created_user_id, created_user_name, org_id)
			VALUES ($1, $1, $1 || '@example.com', $2, 'admin', $3)
			ON CONFLICT (user_name) DO UPDATE SET updated_time = now()
			RETURNING id
		`, d.name, adminID, orgs[d.org]).Scan(&userID)
		if err != nil {
			return fmt.Errorf("insert demo user %s: %w", d.name, err)
		}
		if err := assignRole(ctx, pool, userID, d.role); err != nil {
			return fmt.Errorf("assign %s to %s: %w", d.role, d.name, err)
		}
	}

	log.Infow("demo users seeded", "count", len(demo))
	return nil
}
