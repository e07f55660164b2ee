package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

const (
	summaryEmbeddingColumn     = "summary_embedding"
	descriptionEmbeddingColumn = "description_embedding"
)

// DescriptionRepository reads page-region descriptions and their pgvector
// embeddings. Rows are written by the offline indexing pipeline.
type DescriptionRepository struct {
	db *sql.DB
}

func NewDescriptionRepository(db *sql.DB) *DescriptionRepository {
	return &DescriptionRepository{db: db}
}

func (r *DescriptionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS region_descriptions (
	id BIGSERIAL PRIMARY KEY,
	project_key TEXT NOT NULL,
	relative_path TEXT NOT NULL,
	page_num INTEGER,
	region_number INTEGER,
	summary TEXT,
	description TEXT,
	summary_embedding vector,
	description_embedding vector
);

CREATE INDEX IF NOT EXISTS idx_region_descriptions_path ON region_descriptions(project_key, relative_path);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// SearchDescriptions ranks rows by cosine distance over the summary or the full
// description embedding.
func (r *DescriptionRepository) SearchDescriptions(
	ctx context.Context,
	queryVector []float32,
	limit int,
	useSummary bool,
) ([]domain.EvidenceRecord, error) {
	if len(queryVector) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search descriptions", fmt.Errorf("query vector is empty"))
	}
	if limit <= 0 {
		limit = domain.DefaultTopK
	}

	column := descriptionEmbeddingColumn
	if useSummary {
		column = summaryEmbeddingColumn
	}

	query := fmt.Sprintf(`
SELECT project_key, relative_path, page_num, region_number, COALESCE(summary, ''), COALESCE(description, ''),
	1 - (%[1]s <=> $1::vector) AS similarity
FROM region_descriptions
WHERE %[1]s IS NOT NULL
ORDER BY %[1]s <=> $1::vector
LIMIT $2
`, column)

	rows, err := r.db.QueryContext(ctx, query, vectorLiteral(queryVector), limit)
	if err != nil {
		return nil, fmt.Errorf("search descriptions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.EvidenceRecord, 0, limit)
	for rows.Next() {
		record, err := scanDescription(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan description: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptions: %w", err)
	}
	return out, nil
}

func (r *DescriptionRepository) DescriptionsByPaths(
	ctx context.Context,
	projectKey string,
	relativePaths []string,
) ([]domain.EvidenceRecord, error) {
	if projectKey == "" || len(relativePaths) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(relativePaths)+1)
	args = append(args, projectKey)
	placeholders := make([]string, 0, len(relativePaths))
	for _, path := range relativePaths {
		args = append(args, path)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := `
SELECT project_key, relative_path, page_num, region_number, COALESCE(summary, ''), COALESCE(description, '')
FROM region_descriptions
WHERE project_key = $1 AND relative_path IN (` + strings.Join(placeholders, ",") + `)
ORDER BY relative_path, page_num NULLS FIRST, region_number NULLS FIRST
`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("descriptions by paths: %w", err)
	}
	defer rows.Close()

	out := make([]domain.EvidenceRecord, 0, len(relativePaths))
	for rows.Next() {
		record, err := scanDescription(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan description: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDescription(row rowScanner, withSimilarity bool) (domain.EvidenceRecord, error) {
	var (
		record     domain.EvidenceRecord
		pageNum    sql.NullInt64
		region     sql.NullInt64
		similarity sql.NullFloat64
	)
	dest := []any{&record.ProjectKey, &record.RelativePath, &pageNum, &region, &record.Summary, &record.Description}
	if withSimilarity {
		dest = append(dest, &similarity)
	}
	if err := row.Scan(dest...); err != nil {
		return domain.EvidenceRecord{}, err
	}
	record.PageNum = nullableInt(pageNum)
	record.RegionNumber = nullableInt(region)
	record.Similarity = nullableFloat(similarity)
	return record, nil
}
