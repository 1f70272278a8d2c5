package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BookExplorer/internal/scrape"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 5 * time.Second
)

// PostgresIndex persists scraped products:
//
//	CREATE TABLE products (
//	    id      BIGINT PRIMARY KEY,
//	    title   TEXT NOT NULL,
//	    author  TEXT NOT NULL DEFAULT '',
//	    price   TEXT NOT NULL DEFAULT '',
//	    image   TEXT NOT NULL DEFAULT '',
//	    promo   TEXT NOT NULL DEFAULT '',
//	    seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresIndex struct {
	db *sql.DB
}

func NewPostgresIndex(db *sql.DB) *PostgresIndex {
	return &PostgresIndex{db: db}
}

func (s *PostgresIndex) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresIndex) Upsert(ctx context.Context, products []scrape.Product) error {
	if len(products) == 0 {
		return nil
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO products (id, title, author, price, image, promo, seen_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (id)
			DO UPDATE SET title = EXCLUDED.title, author = EXCLUDED.author,
			              price = EXCLUDED.price, image = EXCLUDED.image,
			              promo = EXCLUDED.promo, seen_at = now()
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range products {
			if p.ID == 0 {
				continue
			}
			if _, err := stmt.ExecContext(ctx, p.ID, p.Title, p.Author, p.Price, p.Image, p.Promo); err != nil {
				return err
			}
		}

		return tx.Commit()
	})
}

func (s *PostgresIndex) ByIDs(ctx context.Context, ids []int64) ([]scrape.Product, error) {
	if len(ids) == 0 {
		return []scrape.Product{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	found := make(map[int64]scrape.Product, len(ids))
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT id, title, author, price, image, promo
			FROM products
			WHERE id IN (%s)
		`, strings.Join(placeholders, ", ")), args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p scrape.Product
			if err := rows.Scan(&p.ID, &p.Title, &p.Author, &p.Price, &p.Image, &p.Promo); err != nil {
				return err
			}
			found[p.ID] = p
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	out := make([]scrape.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
