package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/citation-intel/internal/db"
	"github.com/sells-group/citation-intel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	brand      JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	summary    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);

CREATE TABLE IF NOT EXISTS citation_intelligence (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	citation_id        TEXT,
	source_answer_id   TEXT NOT NULL,
	url                TEXT NOT NULL,
	domain             TEXT NOT NULL DEFAULT '',
	title              TEXT NOT NULL DEFAULT '',
	source_model       TEXT NOT NULL DEFAULT '',
	reachable          BOOLEAN NOT NULL DEFAULT false,
	status_code        INTEGER,
	failure_reason     TEXT NOT NULL DEFAULT '',
	failure_cause      TEXT NOT NULL DEFAULT '',
	checked_at         TIMESTAMPTZ NOT NULL,
	category           TEXT NOT NULL,
	subcategory        TEXT,
	opportunity_level  TEXT NOT NULL,
	is_hallucinated    BOOLEAN NOT NULL DEFAULT false,
	hallucination_type TEXT,
	analysis           JSONB,
	used_fallback      BOOLEAN NOT NULL DEFAULT false,
	status             TEXT NOT NULL DEFAULT 'pending',
	error              TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_ci_citation_id ON citation_intelligence(citation_id) WHERE citation_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_ci_answer_url ON citation_intelligence(source_answer_id, url);
CREATE INDEX IF NOT EXISTS idx_ci_category ON citation_intelligence(category);
CREATE INDEX IF NOT EXISTS idx_ci_status ON citation_intelligence(status);

CREATE TABLE IF NOT EXISTS recommendations (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	intelligence_id   TEXT NOT NULL UNIQUE REFERENCES citation_intelligence(id) ON DELETE CASCADE,
	type              TEXT NOT NULL,
	priority          TEXT NOT NULL,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL,
	action_items      JSONB NOT NULL DEFAULT '[]'::jsonb,
	estimated_effort  TEXT NOT NULL,
	generated_content TEXT,
	actioned          BOOLEAN NOT NULL DEFAULT false,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_recommendations_priority ON recommendations(priority);

CREATE TABLE IF NOT EXISTS signals (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id        TEXT NOT NULL,
	url              TEXT NOT NULL,
	normalized_url   TEXT NOT NULL,
	domain           TEXT NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	published_at     TIMESTAMPTZ,
	brand_hits       JSONB NOT NULL DEFAULT '[]'::jsonb,
	competitor_hits  JSONB NOT NULL DEFAULT '[]'::jsonb,
	freshness        DOUBLE PRECISION NOT NULL,
	authority        DOUBLE PRECISION NOT NULL,
	authority_bucket TEXT NOT NULL,
	trusted          BOOLEAN NOT NULL DEFAULT false,
	relevance        DOUBLE PRECISION NOT NULL,
	influence        DOUBLE PRECISION NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (client_id, normalized_url)
);

CREATE INDEX IF NOT EXISTS idx_signals_client_influence ON signals(client_id, influence DESC);

CREATE TABLE IF NOT EXISTS domain_authority (
	domain     TEXT PRIMARY KEY,
	score      DOUBLE PRECISION NOT NULL,
	bucket     TEXT NOT NULL,
	trusted    BOOLEAN NOT NULL DEFAULT false,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Runs ---

func (s *PostgresStore) CreateRun(ctx context.Context, brand model.BrandContext) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	brandJSON, err := json.Marshal(brand)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal brand")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, brand, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, brandJSON, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Brand:     brand,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("run", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunSummary(ctx context.Context, runID string, summary *model.BatchSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET summary = $1, status = $2, updated_at = $3 WHERE id = $4`,
		summaryJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run summary %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("run", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var brandJSON []byte
	var summaryJSON *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, brand, status, summary, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &brandJSON, &r.Status, &summaryJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("run", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if err := json.Unmarshal(brandJSON, &r.Brand); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal brand")
	}
	if summaryJSON != nil {
		r.Summary = &model.BatchSummary{}
		if err := json.Unmarshal(*summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	return &r, nil
}

// --- Citation intelligence ---

func (s *PostgresStore) UpsertIntelligence(ctx context.Context, ci *model.CitationIntelligence) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin upsert intelligence")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var byCitation, byAnswer string
	if ci.CitationID != "" {
		err := tx.QueryRow(ctx,
			`SELECT id FROM citation_intelligence WHERE citation_id = $1 FOR UPDATE`, ci.CitationID,
		).Scan(&byCitation)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return eris.Wrap(err, "postgres: lookup intelligence by citation")
		}
	}
	err = tx.QueryRow(ctx,
		`SELECT id FROM citation_intelligence WHERE source_answer_id = $1 AND url = $2 FOR UPDATE`,
		ci.SourceAnswerID, ci.URL,
	).Scan(&byAnswer)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrap(err, "postgres: lookup intelligence by answer")
	}

	target := byCitation
	if target == "" {
		target = byAnswer
	}
	if byCitation != "" && byAnswer != "" && byAnswer != byCitation {
		if _, err := tx.Exec(ctx, `DELETE FROM recommendations WHERE intelligence_id = $1`, byAnswer); err != nil {
			return eris.Wrap(err, "postgres: delete superseded recommendation")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM citation_intelligence WHERE id = $1`, byAnswer); err != nil {
			return eris.Wrap(err, "postgres: delete superseded intelligence")
		}
	}

	now := time.Now().UTC()
	ci.UpdatedAt = now
	values := intelligenceValues(ci, nullableJSON(ci.Analysis))

	if target == "" {
		ci.ID = uuid.New().String()
		ci.CreatedAt = now
		args := append([]any{ci.ID}, values...)
		args = append(args, now, now)
		_, err = tx.Exec(ctx,
			`INSERT INTO citation_intelligence (`+intelligenceColumns+`) VALUES (`+placeholders(len(args), 1, true)+`)`,
			args...,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert intelligence")
		}
	} else {
		ci.ID = target
		n := len(values)
		args := append(values, now, target)
		err = tx.QueryRow(ctx,
			`UPDATE citation_intelligence SET `+setList(intelligenceMutable, 1, true)+
				`, updated_at = `+placeholders(1, n+1, true)+` WHERE id = `+placeholders(1, n+2, true)+
				` RETURNING created_at`,
			args...,
		).Scan(&ci.CreatedAt)
		if err != nil {
			return eris.Wrapf(err, "postgres: update intelligence %s", target)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit upsert intelligence")
}

func (s *PostgresStore) GetIntelligence(ctx context.Context, id string) (*model.CitationIntelligence, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+intelligenceColumns+` FROM citation_intelligence WHERE id = $1`, id,
	)
	ci, err := scanIntelligencePG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("intelligence", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get intelligence %s", id)
	}
	return ci, nil
}

func (s *PostgresStore) ListIntelligence(ctx context.Context, filter IntelligenceFilter) ([]model.CitationIntelligence, error) {
	w := intelligenceWhere(filter, true, "")
	query := `SELECT ` + intelligenceColumns + ` FROM citation_intelligence` + w.where() +
		` ORDER BY updated_at DESC` + w.page(filter.Limit, filter.Offset)

	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list intelligence")
	}
	defer rows.Close()

	var out []model.CitationIntelligence
	for rows.Next() {
		ci, err := scanIntelligencePG(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan intelligence")
		}
		out = append(out, *ci)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list intelligence iterate")
}

func (s *PostgresStore) SummarizeIntelligence(ctx context.Context, filter IntelligenceFilter) (*model.IntelligenceSummary, error) {
	sum := newSummary()

	w := intelligenceWhere(filter, true, "")
	rows, err := s.pool.Query(ctx,
		`SELECT category, status, is_hallucinated, reachable, COUNT(*) FROM citation_intelligence`+w.where()+
			` GROUP BY category, status, is_hallucinated, reachable`,
		w.args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: summarize intelligence")
	}
	for rows.Next() {
		var r summaryRow
		if err := rows.Scan(&r.category, &r.status, &r.hallucinated, &r.reachable, &r.count); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan summary")
		}
		r.apply(sum)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: summarize iterate")
	}

	rw := intelligenceWhere(filter, true, "ci.")
	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN r.actioned THEN 1 ELSE 0 END), 0)
		 FROM recommendations r JOIN citation_intelligence ci ON ci.id = r.intelligence_id`+rw.where(),
		rw.args...,
	).Scan(&sum.Recommendations, &sum.Actioned)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: summarize recommendations")
	}
	return sum, nil
}

// --- Recommendations ---

func (s *PostgresStore) ReplaceRecommendation(ctx context.Context, intelligenceID string, rec *model.Recommendation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace recommendation")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM recommendations WHERE intelligence_id = $1`, intelligenceID); err != nil {
		return eris.Wrapf(err, "postgres: delete recommendation for %s", intelligenceID)
	}

	if rec != nil {
		prepareRecommendation(rec, intelligenceID)
		items, err := json.Marshal(rec.ActionItems)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal action items")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO recommendations (`+recommendationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			rec.ID, intelligenceID, string(rec.Type), string(rec.Priority), rec.Title, rec.Description,
			items, rec.EstimatedEffort, nullable(rec.GeneratedContent), rec.Actioned, rec.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert recommendation for %s", intelligenceID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace recommendation")
}

func (s *PostgresStore) GetRecommendation(ctx context.Context, intelligenceID string) (*model.Recommendation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE intelligence_id = $1`, intelligenceID,
	)
	rec, err := scanRecommendationPG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("recommendation for intelligence", intelligenceID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get recommendation %s", intelligenceID)
	}
	return rec, nil
}

func (s *PostgresStore) ListRecommendations(ctx context.Context, filter RecommendationFilter) ([]model.Recommendation, error) {
	w := recommendationWhere(filter, true)
	query := `SELECT ` + recommendationColumns + ` FROM recommendations` + w.where() +
		` ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at DESC` +
		w.page(filter.Limit, filter.Offset)

	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recommendations")
	}
	defer rows.Close()

	var out []model.Recommendation
	for rows.Next() {
		rec, err := scanRecommendationPG(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan recommendation")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list recommendations iterate")
}

func (s *PostgresStore) MarkActioned(ctx context.Context, recommendationID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE recommendations SET actioned = true WHERE id = $1`, recommendationID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark actioned %s", recommendationID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("recommendation", recommendationID)
	}
	return nil
}

// --- Signals ---

func (s *PostgresStore) InsertSignal(ctx context.Context, sig *model.Signal) (bool, error) {
	prepareSignal(sig)
	brandHits, err := json.Marshal(sig.BrandHits)
	if err != nil {
		return false, eris.Wrap(err, "postgres: marshal brand hits")
	}
	competitorHits, err := json.Marshal(sig.CompetitorHits)
	if err != nil {
		return false, eris.Wrap(err, "postgres: marshal competitor hits")
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO signals (`+signalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (client_id, normalized_url) DO NOTHING`,
		sig.ID, sig.ClientID, sig.URL, sig.NormalizedURL, sig.Domain, sig.Title, nullable(sig.PublishedAt),
		brandHits, competitorHits, sig.Freshness, sig.Authority, sig.AuthorityBucket,
		sig.Trusted, sig.Relevance, sig.Influence, sig.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert signal")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListSignals(ctx context.Context, clientID string, limit int) ([]model.Signal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+signalColumns+` FROM signals WHERE client_id = $1 ORDER BY influence DESC, created_at DESC LIMIT $2`,
		clientID, limitOrDefault(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list signals")
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		var sig model.Signal
		var brandHits, competitorHits []byte
		if err := rows.Scan(&sig.ID, &sig.ClientID, &sig.URL, &sig.NormalizedURL, &sig.Domain, &sig.Title,
			&sig.PublishedAt, &brandHits, &competitorHits, &sig.Freshness, &sig.Authority,
			&sig.AuthorityBucket, &sig.Trusted, &sig.Relevance, &sig.Influence, &sig.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan signal")
		}
		if err := json.Unmarshal(brandHits, &sig.BrandHits); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal brand hits")
		}
		if err := json.Unmarshal(competitorHits, &sig.CompetitorHits); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal competitor hits")
		}
		out = append(out, sig)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list signals iterate")
}

// --- Domain authority ---

func (s *PostgresStore) GetDomainAuthority(ctx context.Context, domain string) (*model.Authority, error) {
	var a model.Authority
	err := s.pool.QueryRow(ctx,
		`SELECT score, bucket, trusted FROM domain_authority WHERE domain = $1`, domain,
	).Scan(&a.Score, &a.Bucket, &a.Trusted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get domain authority %s", domain)
	}
	return &a, nil
}

var authorityUpsert = db.UpsertConfig{
	Table:        "domain_authority",
	Columns:      []string{"domain", "score", "bucket", "trusted", "updated_at"},
	ConflictKeys: []string{"domain"},
}

func (s *PostgresStore) LoadDomainAuthorities(ctx context.Context, table map[string]model.Authority) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(table))
	for domain, a := range table {
		rows = append(rows, []any{domain, a.Score, a.Bucket, a.Trusted, now})
	}
	n, err := db.BulkUpsert(ctx, s.pool, authorityUpsert, rows)
	return n, eris.Wrap(err, "postgres: load domain authorities")
}

// helpers

func scanIntelligencePG(row scannable) (*model.CitationIntelligence, error) {
	var ci model.CitationIntelligence
	var citationID *string
	var analysis []byte
	err := row.Scan(&ci.ID, &citationID, &ci.SourceAnswerID, &ci.URL, &ci.Domain, &ci.Title, &ci.SourceModel,
		&ci.Verification.Reachable, &ci.Verification.StatusCode, &ci.Verification.FailureReason,
		&ci.Verification.Cause, &ci.Verification.CheckedAt,
		&ci.Classification.Category, &ci.Classification.Subcategory, &ci.Classification.OpportunityLevel,
		&ci.Hallucination.IsHallucinated, &ci.Hallucination.Type,
		&analysis, &ci.UsedFallback, &ci.Status, &ci.Error, &ci.CreatedAt, &ci.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if citationID != nil {
		ci.CitationID = *citationID
	}
	if len(analysis) > 0 {
		ci.Analysis = json.RawMessage(analysis)
	}
	return &ci, nil
}

func scanRecommendationPG(row scannable) (*model.Recommendation, error) {
	var rec model.Recommendation
	var items []byte
	err := row.Scan(&rec.ID, &rec.IntelligenceID, &rec.Type, &rec.Priority, &rec.Title, &rec.Description,
		&items, &rec.EstimatedEffort, &rec.GeneratedContent, &rec.Actioned, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &rec.ActionItems); err != nil {
		return nil, eris.Wrap(err, "unmarshal action items")
	}
	return &rec, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
