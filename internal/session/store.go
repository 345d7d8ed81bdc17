// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session tracks research sessions: a topic, the records produced
// by each pipeline stage, and the parent a session was extended from. The
// index lives in a SQLite database under the artifacts directory and each
// saved stage is mirrored as a JSON artifact next to it.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/litsweep/internal/artifact"
	"github.com/pdiddy/litsweep/internal/dedup"
	"github.com/pdiddy/litsweep/pkg/types"
)

const (
	dbFile = "sessions.db"

	// idKeywords is the number of topic words carried into a session id.
	idKeywords = 3
)

// Pipeline stages a session stores records for.
const (
	StageSearch       = "search"
	StageFiltered     = "filtered"
	StageRanked       = "ranked"
	StageDeduplicated = "deduplicated"
	StageExpanded     = "expanded"
)

// Session status values.
const (
	StatusCreated  = "created"
	StatusExtended = "extended"
)

var (
	// ErrNotFound is returned when a session or stage does not exist.
	ErrNotFound = eris.New("not found")

	// ErrEmptyTopic is returned when a session is created without a topic.
	ErrEmptyTopic = eris.New("session topic is empty")
)

// Session is one entry of the session index.
type Session struct {
	ID          string    `json:"session_id" yaml:"session_id"`
	Topic       string    `json:"topic" yaml:"topic"`
	ParentID    string    `json:"parent_session,omitempty" yaml:"parent_session,omitempty"`
	Status      string    `json:"status" yaml:"status"`
	TotalPapers int       `json:"total_papers" yaml:"total_papers"`
	CreatedAt   time.Time `json:"timestamp" yaml:"timestamp"`

	// Stages and Children are filled by Get.
	Stages   []StageInfo `json:"stages,omitempty" yaml:"stages,omitempty"`
	Children []string    `json:"child_sessions,omitempty" yaml:"child_sessions,omitempty"`
}

// StageInfo describes one saved stage.
type StageInfo struct {
	Stage     string    `json:"stage" yaml:"stage"`
	Count     int       `json:"count" yaml:"count"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Store manages the session index database.
type Store struct {
	db           *sql.DB
	artifactsDir string
	now          func() time.Time
}

// NewStore opens or creates artifactsDir/sessions.db.
func NewStore(cfg types.SessionConfig) (*Store, error) {
	dir := cfg.ArtifactsDir
	if dir == "" {
		dir = "artifacts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "creating artifacts directory")
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, eris.Wrap(err, "opening database")
	}

	s := &Store{db: db, artifactsDir: dir, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "creating schema")
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			parent_id TEXT REFERENCES sessions(id),
			status TEXT NOT NULL,
			total_papers INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_parent ON sessions(parent_id)`,
		`CREATE TABLE IF NOT EXISTS stages (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			stage TEXT NOT NULL,
			records TEXT NOT NULL,
			count INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (session_id, stage)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return eris.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// NewID builds a session id from the creation time and the first topic
// words, with a short random suffix so ids created in the same second
// stay distinct.
func NewID(topic string, at time.Time) string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(topic)) {
		w = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, w)
		if w != "" {
			words = append(words, w)
		}
		if len(words) == idKeywords {
			break
		}
	}
	id := "session_" + at.Format("20060102_150405")
	if len(words) > 0 {
		id += "_" + strings.Join(words, "_")
	}
	return id + "_" + uuid.NewString()[:8]
}

// Create registers a new session. A non-empty parentID must name an
// existing session.
func (s *Store) Create(ctx context.Context, topic, parentID string) (*Session, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	status := StatusCreated
	if parentID != "" {
		if _, err := s.get(ctx, parentID); err != nil {
			return nil, eris.Wrapf(err, "parent session %s", parentID)
		}
		status = StatusExtended
	}

	now := s.now().UTC()
	sess := &Session{
		ID:        NewID(topic, now),
		Topic:     topic,
		ParentID:  parentID,
		Status:    status,
		CreatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, topic, parent_id, status, total_papers, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		sess.ID, sess.Topic, nullable(parentID), sess.Status, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, eris.Wrap(err, "inserting session")
	}
	zap.L().Info("session created", zap.String("id", sess.ID), zap.String("parent", parentID))
	return sess, nil
}

// Get returns a session with its saved stages and child sessions.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, count, updated_at FROM stages WHERE session_id = ? ORDER BY updated_at, stage`, id)
	if err != nil {
		return nil, eris.Wrap(err, "querying stages")
	}
	defer rows.Close()
	for rows.Next() {
		var info StageInfo
		var updated string
		if err := rows.Scan(&info.Stage, &info.Count, &updated); err != nil {
			return nil, eris.Wrap(err, "scanning stage")
		}
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		sess.Stages = append(sess.Stages, info)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterating stages")
	}

	children, err := s.db.QueryContext(ctx,
		`SELECT id FROM sessions WHERE parent_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, eris.Wrap(err, "querying child sessions")
	}
	defer children.Close()
	for children.Next() {
		var child string
		if err := children.Scan(&child); err != nil {
			return nil, eris.Wrap(err, "scanning child session")
		}
		sess.Children = append(sess.Children, child)
	}
	return sess, eris.Wrap(children.Err(), "iterating child sessions")
}

func (s *Store) get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, topic, parent_id, status, total_papers, created_at FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "session %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "querying session")
	}
	return sess, nil
}

// List returns all sessions, oldest first.
func (s *Store) List(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, parent_id, status, total_papers, created_at FROM sessions ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "querying sessions")
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scanning session")
		}
		out = append(out, *sess)
	}
	return out, eris.Wrap(rows.Err(), "iterating sessions")
}

// StagePath is the JSON artifact mirroring a saved stage.
func (s *Store) StagePath(sessionID, stage string) string {
	return filepath.Join(s.artifactsDir, sessionID, stage+".json")
}

// SaveStage stores the records of a stage, replacing any earlier save.
// Saving the deduplicated stage sets the session's paper count.
func (s *Store) SaveStage(ctx context.Context, sessionID, stage string, records []types.Record) error {
	if _, err := s.get(ctx, sessionID); err != nil {
		return err
	}
	if records == nil {
		records = []types.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return eris.Wrapf(err, "encoding stage %s", stage)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO stages (session_id, stage, records, count, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, stage) DO UPDATE SET
			records=excluded.records, count=excluded.count, updated_at=excluded.updated_at`,
		sessionID, stage, string(data), len(records), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return eris.Wrapf(err, "saving stage %s", stage)
	}
	if stage == StageDeduplicated {
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET total_papers = ? WHERE id = ?`, len(records), sessionID); err != nil {
			return eris.Wrap(err, "updating paper count")
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "committing stage")
	}

	if err := artifact.WriteRecords(s.StagePath(sessionID, stage), records); err != nil {
		return err
	}
	zap.L().Info("stage saved",
		zap.String("session", sessionID),
		zap.String("stage", stage),
		zap.Int("records", len(records)))
	return nil
}

// LoadStage returns the records saved for a stage.
func (s *Store) LoadStage(ctx context.Context, sessionID, stage string) ([]types.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT records FROM stages WHERE session_id = ? AND stage = ?`, sessionID, stage,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "stage %s of session %s", stage, sessionID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "querying stage")
	}
	var records []types.Record
	if err := artifact.Unmarshal([]byte(data), &records); err != nil {
		return nil, eris.Wrapf(err, "decoding stage %s", stage)
	}
	return records, nil
}

// ExtendResult reports how a child session was assembled.
type ExtendResult struct {
	Session *Session    `json:"session"`
	Parent  int         `json:"parent_papers"`
	Added   int         `json:"new_papers"`
	Total   int         `json:"total_papers"`
	Dedup   dedup.Stats `json:"dedup"`
}

// Extend creates a child of parentID whose deduplicated stage holds the
// parent's papers followed by the new papers that are not duplicates.
// One Deduplicator sees the parent papers first, so a paper present in both
// keeps its parent copy. dc configures the matching stages; the zero value
// selects dedup.DefaultConfig.
func (s *Store) Extend(ctx context.Context, parentID, topic string, newRecords []types.Record, dc types.DedupConfig) (*ExtendResult, error) {
	parent, err := s.get(ctx, parentID)
	if err != nil {
		return nil, eris.Wrapf(err, "parent session %s", parentID)
	}
	parentRecords, err := s.LoadStage(ctx, parentID, StageDeduplicated)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(topic) == "" {
		topic = parent.Topic
	}

	if dc == (types.DedupConfig{}) {
		dc = dedup.DefaultConfig()
	}
	d, err := dedup.FromConfig(dc)
	if err != nil {
		return nil, eris.Wrap(err, "creating deduplicator")
	}
	kept, _ := d.Deduplicate(parentRecords, dc.Aggressive)
	added, _ := d.Deduplicate(newRecords, dc.Aggressive)
	merged := append(kept, added...)

	child, err := s.Create(ctx, topic, parentID)
	if err != nil {
		return nil, err
	}
	if err := s.SaveStage(ctx, child.ID, StageDeduplicated, merged); err != nil {
		return nil, err
	}
	child.TotalPapers = len(merged)

	return &ExtendResult{
		Session: child,
		Parent:  len(kept),
		Added:   len(added),
		Total:   len(merged),
		Dedup:   d.Stats(),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess    Session
		parent  sql.NullString
		created string
	)
	if err := row.Scan(&sess.ID, &sess.Topic, &parent, &sess.Status, &sess.TotalPapers, &created); err != nil {
		return nil, err
	}
	sess.ParentID = parent.String
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing created_at %q", created)
	}
	sess.CreatedAt = t
	return &sess, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
