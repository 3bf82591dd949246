package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("render not found")

// ============================================================
// Render cache
// ============================================================

// Render - сохраненный результат рендера: исходный текст и SVG-документ.
type Render struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	SVG       string `json:"-"`
	Elements  int    `json:"elements"`
	CreatedAt string `json:"created_at"`
}

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init применяет встроенные миграции.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Save сохраняет документ под новым uuid.
func (r *Repository) Save(ctx context.Context, source, svg string, elements int) (*Render, error) {
	id := uuid.NewString()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO renders (id, source, svg, elements)
        VALUES (?, ?, ?, ?)
    `, id, source, svg, elements)
	if err != nil {
		return nil, fmt.Errorf("insert render: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *Repository) Get(ctx context.Context, id string) (*Render, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, source, svg, elements, created_at
        FROM renders
        WHERE id = ?
    `, id)

	var out Render
	if err := row.Scan(&out.ID, &out.Source, &out.SVG, &out.Elements, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// Prune оставляет только keep последних документов и возвращает число удаленных.
func (r *Repository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx, `
        DELETE FROM renders
        WHERE id NOT IN (
            SELECT id FROM renders ORDER BY created_at DESC, rowid DESC LIMIT ?
        )
    `, keep)
	if err != nil {
		return 0, fmt.Errorf("prune renders: %w", err)
	}
	return res.RowsAffected()
}

// Ping проверяет соединение (readiness).
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// OpenSQLite открывает файл кеша рендеров, создавая каталог при необходимости.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create render cache dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open render cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
