// Package main provides a CLI tool for creating the schema and seeding
// the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"planbook/internal/infrastructure/storage/postgres"
	"planbook/pkg/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		display_name  TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		roles         TEXT[] NOT NULL DEFAULT '{}',
		region        TEXT,
		department    TEXT,
		tenant        TEXT NOT NULL DEFAULT 'default',
		locale        TEXT NOT NULL DEFAULT 'en'
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		price         NUMERIC(15,2) NOT NULL DEFAULT 0,
		currency_code TEXT NOT NULL DEFAULT 'EUR',
		category      TEXT NOT NULL DEFAULT '',
		sku           TEXT NOT NULL DEFAULT '',
		stock         BIGINT NOT NULL DEFAULT 0,
		unit          TEXT NOT NULL DEFAULT '',
		image_url     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sales_plans (
		id                 BIGSERIAL PRIMARY KEY,
		title              TEXT NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		start_date         TIMESTAMPTZ NOT NULL,
		end_date           TIMESTAMPTZ NOT NULL,
		target_amount      NUMERIC(15,2) NOT NULL,
		unit               TEXT NOT NULL DEFAULT '',
		status             TEXT NOT NULL DEFAULT 'draft',
		responsible_person TEXT NOT NULL DEFAULT '',
		region             TEXT,
		department         TEXT,
		remarks            TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by         TEXT NOT NULL DEFAULT '',
		updated_by         TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_plans_region ON sales_plans (region)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_plans_department ON sales_plans (department)`,
	`CREATE TABLE IF NOT EXISTS sales_plan_items (
		id            BIGSERIAL PRIMARY KEY,
		sales_plan_id BIGINT NOT NULL REFERENCES sales_plans(id),
		product_id    BIGINT NOT NULL REFERENCES products(id),
		quantity      BIGINT NOT NULL,
		target_price  NUMERIC(15,2) NOT NULL DEFAULT 0,
		discount      NUMERIC(5,2) NOT NULL DEFAULT 0,
		notes         TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_items_plan ON sales_plan_items (sales_plan_id)`,
	`CREATE TABLE IF NOT EXISTS user_plan_access (
		user_id       TEXT NOT NULL REFERENCES users(id),
		sales_plan_id BIGINT NOT NULL REFERENCES sales_plans(id),
		access_level  TEXT NOT NULL,
		granted_by    TEXT NOT NULL DEFAULT '',
		granted_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, sales_plan_id)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id                 UUID PRIMARY KEY,
		entity             TEXT NOT NULL,
		entity_id          TEXT NOT NULL,
		action             TEXT NOT NULL,
		actor              TEXT NOT NULL DEFAULT '',
		changes            JSONB,
		changes_compressed BYTEA,
		compression_algo   TEXT NOT NULL DEFAULT 'none',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log (entity, entity_id)`,
}

type demoUser struct {
	id          string
	displayName string
	password    string
	roles       []string
	region      *string
	department  *string
}

func str(s string) *string { return &s }

var demoUsers = []demoUser{
	{id: "alice", displayName: "Alice Admin", password: "alice", roles: []string{"admin", "editor"}},
	{id: "bob", displayName: "Bob North", password: "bob", roles: []string{"editor"}, region: str("north")},
	{id: "carol", displayName: "Carol Sales", password: "carol", roles: []string{"editor"}, department: str("sales")},
	{id: "charlie", displayName: "Charlie Viewer", password: "charlie", roles: []string{"viewer"}},
}

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

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalw("failed to apply schema", "error", err)
		}
	}
	log.Info("schema applied")

	if err := seedUsers(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed users", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedUsers(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	for _, u := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.id, err)
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO users (id, display_name, password_hash, roles, region, department)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`, u.id, u.displayName, string(hash), u.roles, u.region, u.department)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.id, err)
		}
		log.Infow("user ready", "user_id", u.id, "roles", u.roles)
	}
	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	var productCount int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&productCount); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if productCount > 0 {
		log.Info("demo data already present, skipping")
		return nil
	}

	products := []struct {
		name, category, sku, unit string
		price                     string
		stock                     int64
	}{
		{"Espresso Machine X10", "appliances", "EM-X10", "pc", "549.00", 120},
		{"Grinder Pro", "appliances", "GR-PRO", "pc", "189.00", 300},
		{"Arabica Beans 1kg", "consumables", "AB-1KG", "kg", "24.50", 5000},
	}

	productIDs := make([]int64, 0, len(products))
	for _, p := range products {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO products (name, price, category, sku, stock, unit)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, p.name, p.price, p.category, p.sku, p.stock, p.unit).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.name, err)
		}
		productIDs = append(productIDs, id)
	}

	now := time.Now().UTC()
	plans := []struct {
		title      string
		region     *string
		department *string
		amount     string
		status     string
	}{
		{"North region Q4", str("north"), nil, "250000.00", "inProgress"},
		{"Sales department annual", nil, str("sales"), "1200000.00", "draft"},
		{"Company-wide pilot", nil, nil, "80000.00", "draft"},
	}

	for _, p := range plans {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO sales_plans (
				title, start_date, end_date, target_amount, status,
				region, department, created_by, updated_by, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'alice', 'alice', $8, $8)
			RETURNING id
		`, p.title, now, now.AddDate(0, 3, 0), p.amount, p.status, p.region, p.department, now).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert plan %s: %w", p.title, err)
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO sales_plan_items (sales_plan_id, product_id, quantity, target_price)
			VALUES ($1, $2, 100, 500.00)
		`, id, productIDs[0])
		if err != nil {
			return fmt.Errorf("insert item for plan %s: %w", p.title, err)
		}

		log.Infow("plan seeded", "plan_id", id, "title", p.title)
	}

	return nil
}
