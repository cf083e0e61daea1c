package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // cgo sqlite3 driver

	"github.com/haasonsaas/case-nexus/pkg/models"
)

// SQLiteConfig configures the on-disk persisted store (spec §6 "Persisted
// state layout"): Cases, Evidence, Alerts, Connections, PriorityActions,
// Insights, ChatHistory in one relational database.
type SQLiteConfig struct {
	Path string // ":memory:" is valid for tests.
}

// OpenSQLite opens the database and ensures the schema exists. WAL mode is
// enabled so a long health-check write does not stall concurrent readers.
func OpenSQLite(cfg SQLiteConfig) (*sql.DB, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = ":memory:"
	}
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cases (
			case_number TEXT PRIMARY KEY,
			defendant TEXT NOT NULL,
			severity TEXT NOT NULL,
			status TEXT NOT NULL,
			charges TEXT,
			filing_date DATETIME,
			arrest_date DATETIME,
			hearing_date DATETIME,
			officer TEXT,
			judge TEXT,
			prosecutor TEXT,
			witnesses TEXT,
			bond TEXT,
			plea_offer TEXT,
			prior_record TEXT,
			notes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			id TEXT PRIMARY KEY,
			case_number TEXT NOT NULL,
			type TEXT NOT NULL,
			media_path TEXT,
			poster_path TEXT,
			title TEXT,
			description TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_case ON evidence(case_number)`,
		`CREATE TABLE IF NOT EXISTS legal_facts (
			citation_token TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			title TEXT,
			jurisdiction TEXT,
			holding TEXT,
			summary TEXT,
			topics TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			severity TEXT NOT NULL,
			type TEXT NOT NULL,
			case_number TEXT,
			title TEXT,
			message TEXT,
			details TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS connections (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			confidence REAL,
			case_numbers TEXT,
			title TEXT,
			description TEXT,
			actionable_suggestion TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS priority_actions (
			case_number TEXT NOT NULL,
			action TEXT,
			urgency TEXT,
			reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS insights (
			id TEXT PRIMARY KEY,
			analysis_type TEXT NOT NULL,
			scope TEXT NOT NULL,
			payload TEXT,
			timestamp DATETIME,
			sequence INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_scope_type ON insights(scope, analysis_type, timestamp)`,
		`CREATE TABLE IF NOT EXISTS chat_history (
			id TEXT PRIMARY KEY,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// LoadSnapshot reads the whole persisted store into a MemoryStore, matching
// the "loaded once and treated as immutable for a session" lifecycle note.
func LoadSnapshot(ctx context.Context, db *sql.DB) (*MemoryStore, error) {
	cases, err := loadCases(ctx, db)
	if err != nil {
		return nil, err
	}
	evidence, err := loadEvidence(ctx, db)
	if err != nil {
		return nil, err
	}
	legal, err := loadLegalFacts(ctx, db)
	if err != nil {
		return nil, err
	}

	store := NewMemoryStore(cases, evidence, legal)

	alerts, err := loadAlerts(ctx, db)
	if err != nil {
		return nil, err
	}
	connections, err := loadConnections(ctx, db)
	if err != nil {
		return nil, err
	}
	actions, err := loadPriorityActions(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := store.ReplaceHealthCheckResults(ctx, alerts, connections, actions); err != nil {
		return nil, err
	}
	return store, nil
}

func loadCases(ctx context.Context, db *sql.DB) ([]models.Case, error) {
	rows, err := db.QueryContext(ctx, `SELECT case_number, defendant, severity, status, charges,
		filing_date, arrest_date, hearing_date, officer, judge, prosecutor, witnesses,
		bond, plea_offer, prior_record, notes FROM cases`)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var out []models.Case
	for rows.Next() {
		var c models.Case
		var charges, witnesses sql.NullString
		var filing, arrest, hearing sql.NullTime
		if err := rows.Scan(&c.CaseNumber, &c.Defendant, &c.Severity, &c.Status, &charges,
			&filing, &arrest, &hearing, &c.Officer, &c.Judge, &c.Prosecutor, &witnesses,
			&c.Bond, &c.PleaOffer, &c.PriorRecord, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c.Charges = splitCSV(charges.String)
		c.Witnesses = splitCSV(witnesses.String)
		c.FilingDate = filing.Time
		c.ArrestDate = arrest.Time
		c.HearingDate = hearing.Time
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadEvidence(ctx context.Context, db *sql.DB) ([]models.EvidenceItem, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, case_number, type, media_path, poster_path, title, description FROM evidence`)
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	defer rows.Close()

	var out []models.EvidenceItem
	for rows.Next() {
		var e models.EvidenceItem
		if err := rows.Scan(&e.ID, &e.CaseNumber, &e.Type, &e.MediaPath, &e.PosterPath, &e.Title, &e.Description); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func loadLegalFacts(ctx context.Context, db *sql.DB) ([]models.LegalFact, error) {
	rows, err := db.QueryContext(ctx, `SELECT citation_token, kind, title, jurisdiction, holding, summary, topics FROM legal_facts`)
	if err != nil {
		return nil, fmt.Errorf("query legal_facts: %w", err)
	}
	defer rows.Close()

	var out []models.LegalFact
	for rows.Next() {
		var lf models.LegalFact
		var topics sql.NullString
		if err := rows.Scan(&lf.CitationToken, &lf.Kind, &lf.Title, &lf.Jurisdiction, &lf.Holding, &lf.Summary, &topics); err != nil {
			return nil, fmt.Errorf("scan legal_fact: %w", err)
		}
		lf.Topics = splitCSV(topics.String)
		out = append(out, lf)
	}
	return out, rows.Err()
}

func loadAlerts(ctx context.Context, db *sql.DB) ([]models.Alert, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, severity, type, case_number, title, message, details, created_at FROM alerts`)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var a models.Alert
		var caseNumber, details sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.Severity, &a.Type, &caseNumber, &a.Title, &a.Message, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.CaseNumber = caseNumber.String
		a.Details = details.String
		a.CreatedAt = createdAt.Time
		out = append(out, a)
	}
	return out, rows.Err()
}

func loadConnections(ctx context.Context, db *sql.DB) ([]models.Connection, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, type, confidence, case_numbers, title, description, actionable_suggestion, created_at FROM connections`)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	var out []models.Connection
	for rows.Next() {
		var c models.Connection
		var caseNumbers sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Type, &c.Confidence, &caseNumbers, &c.Title, &c.Description, &c.ActionableSuggestion, &createdAt); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		c.CaseNumbers = splitCSV(caseNumbers.String)
		c.CreatedAt = createdAt.Time
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadPriorityActions(ctx context.Context, db *sql.DB) ([]models.PriorityAction, error) {
	rows, err := db.QueryContext(ctx, `SELECT case_number, action, urgency, reason FROM priority_actions`)
	if err != nil {
		return nil, fmt.Errorf("query priority_actions: %w", err)
	}
	defer rows.Close()

	var out []models.PriorityAction
	for rows.Next() {
		var pa models.PriorityAction
		if err := rows.Scan(&pa.CaseNumber, &pa.Action, &pa.Urgency, &pa.Reason); err != nil {
			return nil, fmt.Errorf("scan priority_action: %w", err)
		}
		out = append(out, pa)
	}
	return out, rows.Err()
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// marshalJSON encodes v as a JSON string. It is unexported, so
// internal/insights cannot use it, and nothing in this package calls it.
func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
