// Package sqlite persists the ledger's event journal in SQLite, together with
// a relational projection of the current state (papers, versions, auditors
// and used content hashes) kept in step with each appended event.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"xdao.co/paperledger/events"
	"xdao.co/paperledger/ledger"
	"xdao.co/paperledger/model"
	"xdao.co/paperledger/store/sqlite/migrations"
)

// Store is a ledger.Journal backed by SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ ledger.Journal = (*Store)(nil)

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(v int64) time.Time { return time.Unix(0, v).UTC() }

// Open opens a SQLite journal at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps appends strictly ordered.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append records e and applies it to the projection tables in one
// transaction. Events must arrive with consecutive sequence numbers.
func (s *Store) Append(ctx context.Context, e events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var lastSeq uint64
	if err := tx.QueryRowContext(ctx, `SELECT last_seq FROM ledger_meta WHERE id = 1`).Scan(&lastSeq); err != nil {
		return fmt.Errorf("read last seq: %w", err)
	}
	if e.Seq != lastSeq+1 {
		return model.Errorf(model.KindInternal, "journal expects seq %d, got %d", lastSeq+1, e.Seq)
	}

	var (
		contentID any
		hash      any
		createdAt any
		signature any
	)
	if e.Version != nil {
		contentID = e.Version.ContentID
		hash = e.Version.ContentHash[:]
		createdAt = toNanos(e.Version.CreatedAt)
		signature = e.Version.Signature
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (
		   seq, id, kind, at, actor, paper_id, auditor, version_index,
		   content_id, content_hash, created_at, signature, title, author
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Seq, e.ID, string(e.Kind), toNanos(e.At), string(e.Actor), e.PaperID, string(e.Auditor), e.VersionIndex,
		contentID, hash, createdAt, signature, e.Title, e.Author,
	); err != nil {
		return fmt.Errorf("insert event %d: %w", e.Seq, err)
	}
	if err := project(ctx, tx, e); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ledger_meta SET last_seq = ? WHERE id = 1`, e.Seq); err != nil {
		return fmt.Errorf("update last seq: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event %d: %w", e.Seq, err)
	}
	return nil
}

// project updates the state tables for one event.
func project(ctx context.Context, tx *sql.Tx, e events.Event) error {
	at := toNanos(e.At)
	var err error
	switch e.Kind {
	case events.KindPaperSubmitted:
		if e.Version == nil {
			return model.Errorf(model.KindInternal, "submitted paper %d without version", e.PaperID)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO papers (id, owner, title, author, status, submitted_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.PaperID, string(e.Actor), e.Title, e.Author, int(model.StatusPending), at, at,
		); err != nil {
			break
		}
		if err = insertVersion(ctx, tx, e.PaperID, 0, e.Version); err != nil {
			break
		}
		_, err = tx.ExecContext(ctx, `UPDATE ledger_meta SET paper_count = ? WHERE id = 1`, e.PaperID)
	case events.KindPaperApproved:
		if err = setStatus(ctx, tx, e.PaperID, model.StatusPublished, at); err != nil {
			break
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO used_content_hashes (hash, paper_id)
			 SELECT content_hash, paper_id FROM versions WHERE paper_id = ? AND idx = 0`,
			e.PaperID,
		)
		if isUniqueViolation(err) {
			return model.Wrap(model.KindConflict, fmt.Sprintf("content hash of paper %d already used", e.PaperID), err)
		}
	case events.KindPaperRejected:
		err = setStatus(ctx, tx, e.PaperID, model.StatusRejected, at)
	case events.KindPaperRemoved:
		err = setStatus(ctx, tx, e.PaperID, model.StatusRemoved, at)
	case events.KindVersionAdded:
		if e.Version == nil {
			return model.Errorf(model.KindInternal, "version event for paper %d without version", e.PaperID)
		}
		if err = insertVersion(ctx, tx, e.PaperID, e.VersionIndex, e.Version); err != nil {
			break
		}
		_, err = tx.ExecContext(ctx, `UPDATE papers SET updated_at = ? WHERE id = ?`, at, e.PaperID)
	case events.KindAuditorAdded:
		_, err = tx.ExecContext(ctx, `INSERT INTO auditors (identity) VALUES (?)`, string(e.Auditor))
	case events.KindAuditorRemoved:
		_, err = tx.ExecContext(ctx, `DELETE FROM auditors WHERE identity = ?`, string(e.Auditor))
	default:
		return model.Errorf(model.KindInternal, "unknown event kind %q", e.Kind)
	}
	if err != nil {
		return fmt.Errorf("project %s seq %d: %w", e.Kind, e.Seq, err)
	}
	return nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, paperID uint64, idx int, v *model.Version) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO versions (paper_id, idx, content_id, content_hash, created_at, signature) VALUES (?, ?, ?, ?, ?, ?)`,
		paperID, idx, v.ContentID, v.ContentHash[:], toNanos(v.CreatedAt), v.Signature,
	)
	return err
}

func setStatus(ctx context.Context, tx *sql.Tx, paperID uint64, st model.Status, at int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE papers SET status = ?, updated_at = ? WHERE id = ?`, int(st), at, paperID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n != 1 {
		return model.Errorf(model.KindInternal, "paper %d not in journal", paperID)
	}
	return nil
}

// Events returns the journal in sequence order.
func (s *Store) Events(ctx context.Context) ([]events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, id, kind, at, actor, paper_id, auditor, version_index,
		        content_id, content_hash, created_at, signature, title, author
		 FROM events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			e         events.Event
			kind      string
			actor     string
			auditor   string
			at        int64
			contentID sql.NullString
			hash      []byte
			createdAt sql.NullInt64
			signature []byte
		)
		if err := rows.Scan(&e.Seq, &e.ID, &kind, &at, &actor, &e.PaperID, &auditor, &e.VersionIndex,
			&contentID, &hash, &createdAt, &signature, &e.Title, &e.Author); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = events.Kind(kind)
		e.At = fromNanos(at)
		e.Actor = model.Identity(actor)
		e.Auditor = model.Identity(auditor)
		if contentID.Valid {
			h, err := model.ContentHashFromBytes(hash)
			if err != nil {
				return nil, fmt.Errorf("event %d content hash: %w", e.Seq, err)
			}
			e.Version = &model.Version{
				ContentID:   contentID.String,
				ContentHash: h,
				CreatedAt:   fromNanos(createdAt.Int64),
				Signature:   signature,
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// PaperCount returns the number of papers recorded in the projection.
func (s *Store) PaperCount(ctx context.Context) (uint64, error) {
	var n uint64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT paper_count FROM ledger_meta WHERE id = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("read paper count: %w", err)
	}
	return n, nil
}

// Paper reads one paper from the projection.
func (s *Store) Paper(ctx context.Context, id uint64) (model.PaperInfo, error) {
	var (
		p           model.PaperInfo
		owner       string
		status      int
		submittedAt int64
		updatedAt   int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT p.id, p.owner, p.title, p.author, p.status, p.submitted_at, p.updated_at,
		        (SELECT COUNT(*) FROM versions v WHERE v.paper_id = p.id)
		 FROM papers p WHERE p.id = ?`, id,
	).Scan(&p.ID, &owner, &p.Title, &p.Author, &status, &submittedAt, &updatedAt, &p.VersionCount)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PaperInfo{}, model.Errorf(model.KindInvalidArgument, "paper %d does not exist", id)
	}
	if err != nil {
		return model.PaperInfo{}, fmt.Errorf("read paper %d: %w", id, err)
	}
	p.Owner = model.Identity(owner)
	p.Status = model.Status(status)
	p.SubmittedAt = fromNanos(submittedAt)
	p.UpdatedAt = fromNanos(updatedAt)
	return p, nil
}

// Auditors lists the projected auditor set in identity order.
func (s *Store) Auditors(ctx context.Context) ([]model.Identity, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT identity FROM auditors ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("query auditors: %w", err)
	}
	defer rows.Close()
	var out []model.Identity
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan auditor: %w", err)
		}
		out = append(out, model.Identity(id))
	}
	return out, rows.Err()
}

// ContentHashUsedBy returns the paper that reserved hash, if any.
func (s *Store) ContentHashUsedBy(ctx context.Context, hash model.ContentHash) (uint64, bool, error) {
	var id uint64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT paper_id FROM used_content_hashes WHERE hash = ?`, hash[:]).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read used hash: %w", err)
	}
	return id, true, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed")
}
