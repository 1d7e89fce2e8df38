package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/citation-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection: upsert transactions read then write, and SQLite has a
	// single writer.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	brand      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	summary    TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS citation_intelligence (
	id                 TEXT PRIMARY KEY,
	citation_id        TEXT,
	source_answer_id   TEXT NOT NULL,
	url                TEXT NOT NULL,
	domain             TEXT NOT NULL DEFAULT '',
	title              TEXT NOT NULL DEFAULT '',
	source_model       TEXT NOT NULL DEFAULT '',
	reachable          BOOLEAN NOT NULL DEFAULT 0,
	status_code        INTEGER,
	failure_reason     TEXT NOT NULL DEFAULT '',
	failure_cause      TEXT NOT NULL DEFAULT '',
	checked_at         DATETIME NOT NULL,
	category           TEXT NOT NULL,
	subcategory        TEXT,
	opportunity_level  TEXT NOT NULL,
	is_hallucinated    BOOLEAN NOT NULL DEFAULT 0,
	hallucination_type TEXT,
	analysis           TEXT,
	used_fallback      BOOLEAN NOT NULL DEFAULT 0,
	status             TEXT NOT NULL DEFAULT 'pending',
	error              TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_ci_citation_id ON citation_intelligence(citation_id) WHERE citation_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_ci_answer_url ON citation_intelligence(source_answer_id, url);
CREATE INDEX IF NOT EXISTS idx_ci_category ON citation_intelligence(category);
CREATE INDEX IF NOT EXISTS idx_ci_status ON citation_intelligence(status);

CREATE TABLE IF NOT EXISTS recommendations (
	id                TEXT PRIMARY KEY,
	intelligence_id   TEXT NOT NULL UNIQUE REFERENCES citation_intelligence(id) ON DELETE CASCADE,
	type              TEXT NOT NULL,
	priority          TEXT NOT NULL,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL,
	action_items      TEXT NOT NULL,
	estimated_effort  TEXT NOT NULL,
	generated_content TEXT,
	actioned          BOOLEAN NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recommendations_priority ON recommendations(priority);

CREATE TABLE IF NOT EXISTS signals (
	id               TEXT PRIMARY KEY,
	client_id        TEXT NOT NULL,
	url              TEXT NOT NULL,
	normalized_url   TEXT NOT NULL,
	domain           TEXT NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	published_at     DATETIME,
	brand_hits       TEXT NOT NULL,
	competitor_hits  TEXT NOT NULL,
	freshness        REAL NOT NULL,
	authority        REAL NOT NULL,
	authority_bucket TEXT NOT NULL,
	trusted          BOOLEAN NOT NULL DEFAULT 0,
	relevance        REAL NOT NULL,
	influence        REAL NOT NULL,
	created_at       DATETIME NOT NULL,
	UNIQUE (client_id, normalized_url)
);

CREATE TABLE IF NOT EXISTS domain_authority (
	domain     TEXT PRIMARY KEY,
	score      REAL NOT NULL,
	bucket     TEXT NOT NULL,
	trusted    BOOLEAN NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Runs ---

func (s *SQLiteStore) CreateRun(ctx context.Context, brand model.BrandContext) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	brandJSON, err := json.Marshal(brand)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal brand")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, brand, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(brandJSON), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Brand:     brand,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) UpdateRunSummary(ctx context.Context, runID string, summary *model.BatchSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET summary = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(summaryJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run summary %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var brandJSON string
	var summaryJSON *string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, brand, status, summary, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &brandJSON, &r.Status, &summaryJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("run", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}

	if err := json.Unmarshal([]byte(brandJSON), &r.Brand); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal brand")
	}
	if summaryJSON != nil {
		r.Summary = &model.BatchSummary{}
		if err := json.Unmarshal([]byte(*summaryJSON), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	return &r, nil
}

// --- Citation intelligence ---

func (s *SQLiteStore) UpsertIntelligence(ctx context.Context, ci *model.CitationIntelligence) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin upsert intelligence")
	}
	defer tx.Rollback() //nolint:errcheck

	var byCitation, byAnswer string
	if ci.CitationID != "" {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM citation_intelligence WHERE citation_id = ?`, ci.CitationID,
		).Scan(&byCitation)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return eris.Wrap(err, "sqlite: lookup intelligence by citation")
		}
	}
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM citation_intelligence WHERE source_answer_id = ? AND url = ?`,
		ci.SourceAnswerID, ci.URL,
	).Scan(&byAnswer)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return eris.Wrap(err, "sqlite: lookup intelligence by answer")
	}

	target := byCitation
	if target == "" {
		target = byAnswer
	}
	if byCitation != "" && byAnswer != "" && byAnswer != byCitation {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recommendations WHERE intelligence_id = ?`, byAnswer); err != nil {
			return eris.Wrap(err, "sqlite: delete superseded recommendation")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM citation_intelligence WHERE id = ?`, byAnswer); err != nil {
			return eris.Wrap(err, "sqlite: delete superseded intelligence")
		}
	}

	now := time.Now().UTC()
	ci.UpdatedAt = now
	values := intelligenceValues(ci, nullableText(ci.Analysis))

	if target == "" {
		ci.ID = uuid.New().String()
		ci.CreatedAt = now
		args := append([]any{ci.ID}, values...)
		args = append(args, now, now)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO citation_intelligence (`+intelligenceColumns+`) VALUES (`+placeholders(len(args), 1, false)+`)`,
			args...,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert intelligence")
		}
	} else {
		ci.ID = target
		args := append(values, now, target)
		_, err = tx.ExecContext(ctx,
			`UPDATE citation_intelligence SET `+setList(intelligenceMutable, 1, false)+`, updated_at = ? WHERE id = ?`,
			args...,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: update intelligence %s", target)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT created_at FROM citation_intelligence WHERE id = ?`, target,
		).Scan(&ci.CreatedAt); err != nil {
			return eris.Wrap(err, "sqlite: read intelligence created_at")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit upsert intelligence")
}

func (s *SQLiteStore) GetIntelligence(ctx context.Context, id string) (*model.CitationIntelligence, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+intelligenceColumns+` FROM citation_intelligence WHERE id = ?`, id,
	)
	ci, err := scanIntelligence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("intelligence", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get intelligence %s", id)
	}
	return ci, nil
}

func (s *SQLiteStore) ListIntelligence(ctx context.Context, filter IntelligenceFilter) ([]model.CitationIntelligence, error) {
	w := intelligenceWhere(filter, false, "")
	query := `SELECT ` + intelligenceColumns + ` FROM citation_intelligence` + w.where() +
		` ORDER BY updated_at DESC` + w.page(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list intelligence")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.CitationIntelligence
	for rows.Next() {
		ci, err := scanIntelligence(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan intelligence")
		}
		out = append(out, *ci)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list intelligence iterate")
}

func (s *SQLiteStore) SummarizeIntelligence(ctx context.Context, filter IntelligenceFilter) (*model.IntelligenceSummary, error) {
	sum := newSummary()

	w := intelligenceWhere(filter, false, "")
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, status, is_hallucinated, reachable, COUNT(*) FROM citation_intelligence`+w.where()+
			` GROUP BY category, status, is_hallucinated, reachable`,
		w.args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: summarize intelligence")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var r summaryRow
		if err := rows.Scan(&r.category, &r.status, &r.hallucinated, &r.reachable, &r.count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan summary")
		}
		r.apply(sum)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: summarize iterate")
	}

	rw := intelligenceWhere(filter, false, "ci.")
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN r.actioned THEN 1 ELSE 0 END), 0)
		 FROM recommendations r JOIN citation_intelligence ci ON ci.id = r.intelligence_id`+rw.where(),
		rw.args...,
	).Scan(&sum.Recommendations, &sum.Actioned)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: summarize recommendations")
	}
	return sum, nil
}

// --- Recommendations ---

func (s *SQLiteStore) ReplaceRecommendation(ctx context.Context, intelligenceID string, rec *model.Recommendation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace recommendation")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM recommendations WHERE intelligence_id = ?`, intelligenceID); err != nil {
		return eris.Wrapf(err, "sqlite: delete recommendation for %s", intelligenceID)
	}

	if rec != nil {
		prepareRecommendation(rec, intelligenceID)
		items, err := json.Marshal(rec.ActionItems)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal action items")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recommendations (`+recommendationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, intelligenceID, string(rec.Type), string(rec.Priority), rec.Title, rec.Description,
			string(items), rec.EstimatedEffort, nullable(rec.GeneratedContent), rec.Actioned, rec.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert recommendation for %s", intelligenceID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace recommendation")
}

func (s *SQLiteStore) GetRecommendation(ctx context.Context, intelligenceID string) (*model.Recommendation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE intelligence_id = ?`, intelligenceID,
	)
	rec, err := scanRecommendation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("recommendation for intelligence", intelligenceID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get recommendation %s", intelligenceID)
	}
	return rec, nil
}

func (s *SQLiteStore) ListRecommendations(ctx context.Context, filter RecommendationFilter) ([]model.Recommendation, error) {
	w := recommendationWhere(filter, false)
	query := `SELECT ` + recommendationColumns + ` FROM recommendations` + w.where() +
		` ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at DESC` +
		w.page(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recommendations")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan recommendation")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list recommendations iterate")
}

func (s *SQLiteStore) MarkActioned(ctx context.Context, recommendationID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recommendations SET actioned = ? WHERE id = ?`, true, recommendationID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark actioned %s", recommendationID)
	}
	return checkRowsAffected(res, "recommendation", recommendationID)
}

// --- Signals ---

func (s *SQLiteStore) InsertSignal(ctx context.Context, sig *model.Signal) (bool, error) {
	prepareSignal(sig)
	brandHits, err := json.Marshal(sig.BrandHits)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: marshal brand hits")
	}
	competitorHits, err := json.Marshal(sig.CompetitorHits)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: marshal competitor hits")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO signals (`+signalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (client_id, normalized_url) DO NOTHING`,
		sig.ID, sig.ClientID, sig.URL, sig.NormalizedURL, sig.Domain, sig.Title, nullable(sig.PublishedAt),
		string(brandHits), string(competitorHits), sig.Freshness, sig.Authority, sig.AuthorityBucket,
		sig.Trusted, sig.Relevance, sig.Influence, sig.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert signal")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListSignals(ctx context.Context, clientID string, limit int) ([]model.Signal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+signalColumns+` FROM signals WHERE client_id = ? ORDER BY influence DESC, created_at DESC LIMIT ?`,
		clientID, limitOrDefault(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list signals")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Signal
	for rows.Next() {
		var sig model.Signal
		var brandHits, competitorHits string
		if err := rows.Scan(&sig.ID, &sig.ClientID, &sig.URL, &sig.NormalizedURL, &sig.Domain, &sig.Title,
			&sig.PublishedAt, &brandHits, &competitorHits, &sig.Freshness, &sig.Authority,
			&sig.AuthorityBucket, &sig.Trusted, &sig.Relevance, &sig.Influence, &sig.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan signal")
		}
		if err := json.Unmarshal([]byte(brandHits), &sig.BrandHits); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal brand hits")
		}
		if err := json.Unmarshal([]byte(competitorHits), &sig.CompetitorHits); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal competitor hits")
		}
		out = append(out, sig)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list signals iterate")
}

// --- Domain authority ---

func (s *SQLiteStore) GetDomainAuthority(ctx context.Context, domain string) (*model.Authority, error) {
	var a model.Authority
	err := s.db.QueryRowContext(ctx,
		`SELECT score, bucket, trusted FROM domain_authority WHERE domain = ?`, domain,
	).Scan(&a.Score, &a.Bucket, &a.Trusted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get domain authority %s", domain)
	}
	return &a, nil
}

func (s *SQLiteStore) LoadDomainAuthorities(ctx context.Context, table map[string]model.Authority) (int64, error) {
	if len(table) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin load authorities")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	var n int64
	for domain, a := range table {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO domain_authority (domain, score, bucket, trusted, updated_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (domain) DO UPDATE SET score = excluded.score, bucket = excluded.bucket,
			 trusted = excluded.trusted, updated_at = excluded.updated_at`,
			domain, a.Score, a.Bucket, a.Trusted, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert authority %s", domain)
		}
		n++
	}
	return n, eris.Wrap(tx.Commit(), "sqlite: commit load authorities")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanIntelligence(row scannable) (*model.CitationIntelligence, error) {
	var ci model.CitationIntelligence
	var citationID, analysis *string
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
	if analysis != nil {
		ci.Analysis = json.RawMessage(*analysis)
	}
	return &ci, nil
}

func scanRecommendation(row scannable) (*model.Recommendation, error) {
	var rec model.Recommendation
	var items string
	err := row.Scan(&rec.ID, &rec.IntelligenceID, &rec.Type, &rec.Priority, &rec.Title, &rec.Description,
		&items, &rec.EstimatedEffort, &rec.GeneratedContent, &rec.Actioned, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &rec.ActionItems); err != nil {
		return nil, eris.Wrap(err, "unmarshal action items")
	}
	return &rec, nil
}

func nullableText(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func prepareRecommendation(rec *model.Recommendation, intelligenceID string) {
	rec.IntelligenceID = intelligenceID
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ActionItems == nil {
		rec.ActionItems = []string{}
	}
}

func prepareSignal(sig *model.Signal) {
	if sig.ID == "" {
		sig.ID = uuid.New().String()
	}
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now().UTC()
	}
	if sig.BrandHits == nil {
		sig.BrandHits = []string{}
	}
	if sig.CompetitorHits == nil {
		sig.CompetitorHits = []string{}
	}
}
