package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and runs migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// SaveReport persists the report header and all of its recommendations.
func (s *PostgresStore) SaveReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, generated_at, total_potential_savings_usd, partial, missing_resources)
		VALUES ($1, $2, $3, $4, $5)
	`, report.ID, report.GeneratedAt, report.TotalPotentialSavings,
		report.Partial, strings.Join(report.MissingResources, ","))
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	for i := range report.Recommendations {
		if err := insertRecommendation(ctx, tx, report.ID, &report.Recommendations[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetReport loads a report with its recommendations in stored order.
func (s *PostgresStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var (
		report  models.Report
		missing sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, generated_at, total_potential_savings_usd, partial, missing_resources
		FROM reports WHERE id = $1
	`, id).Scan(&report.ID, &report.GeneratedAt, &report.TotalPotentialSavings, &report.Partial, &missing)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	if missing.Valid && missing.String != "" {
		report.MissingResources = strings.Split(missing.String, ",")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resource_id, provider, resource_type, action,
			current_shape, recommended_shape, estimated_monthly_savings_usd,
			confidence, rationale, created_at
		FROM recommendations
		WHERE report_id = $1
		ORDER BY estimated_monthly_savings_usd DESC, resource_id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		report.Recommendations = append(report.Recommendations, rec)
	}
	return &report, rows.Err()
}

// SaveRecommendation persists a single recommendation outside a report save.
func (s *PostgresStore) SaveRecommendation(ctx context.Context, reportID string, rec *models.Recommendation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRecommendation(ctx, tx, reportID, rec); err != nil {
		return err
	}
	return tx.Commit()
}

// ListRecommendations returns the most recent recommendations for a
// resource, newest first.
func (s *PostgresStore) ListRecommendations(ctx context.Context, resourceID string, limit int) ([]models.Recommendation, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resource_id, provider, resource_type, action,
			current_shape, recommended_shape, estimated_monthly_savings_usd,
			confidence, rationale, created_at
		FROM recommendations
		WHERE resource_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, resourceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func insertRecommendation(ctx context.Context, tx *sql.Tx, reportID string, rec *models.Recommendation) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO recommendations (
			id, report_id, resource_id, provider, resource_type, action,
			current_shape, recommended_shape, estimated_monthly_savings_usd,
			confidence, rationale, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, rec.ID, reportID, rec.ResourceID, rec.Provider, rec.ResourceType, rec.Action,
		rec.CurrentShape, rec.RecommendedShape, rec.EstimatedMonthlySavings,
		rec.Confidence, rec.Rationale, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecommendation(row rowScanner) (models.Recommendation, error) {
	var (
		rec              models.Recommendation
		currentShape     sql.NullString
		recommendedShape sql.NullString
		rationale        sql.NullString
	)

	err := row.Scan(&rec.ID, &rec.ResourceID, &rec.Provider, &rec.ResourceType, &rec.Action,
		&currentShape, &recommendedShape, &rec.EstimatedMonthlySavings,
		&rec.Confidence, &rationale, &rec.CreatedAt)
	if err != nil {
		return rec, err
	}

	rec.CurrentShape = currentShape.String
	rec.RecommendedShape = recommendedShape.String
	rec.Rationale = rationale.String
	return rec, nil
}
