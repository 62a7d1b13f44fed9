package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"rostersync/internal/config"
)

// Store manages roster persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the roster database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "roster.db")
	return OpenPath(dbPath)
}

// OpenPath opens a roster database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Put upserts a record keyed by handle. A zero-ID record whose handle already
// exists updates the existing row; EntityID is only written through LinkEntity
// so an upsert can never unlink a record.
func (s *Store) Put(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil {
		return nil, errors.New("record is nil")
	}
	if rec.Handle == "" {
		return nil, errors.New("record handle is required")
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	if rec.ID == 0 {
		existing, err := s.FindByHandle(ctx, rec.Handle)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			rec.ID = existing.ID
		}
	}

	if rec.ID == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`INSERT INTO roster_records (
                entity_id, handle, display_name, tier, position,
                position_override, squad, captain, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullableString(rec.EntityID),
			rec.Handle,
			nullableString(rec.DisplayName),
			nullableString(rec.Tier),
			nullableString(rec.Position),
			nullableString(rec.PositionOverride),
			nullableString(rec.Squad),
			boolToInt(rec.Captain),
			timestamp,
			timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("insert record: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetByID(ctx, id)
	}

	_, err := s.db.ExecContext(
		ctx,
		`UPDATE roster_records
         SET handle = ?, display_name = ?, tier = ?, position = ?,
             position_override = ?, squad = ?, captain = ?, updated_at = ?
         WHERE id = ?`,
		rec.Handle,
		nullableString(rec.DisplayName),
		nullableString(rec.Tier),
		nullableString(rec.Position),
		nullableString(rec.PositionOverride),
		nullableString(rec.Squad),
		boolToInt(rec.Captain),
		timestamp,
		rec.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return s.GetByID(ctx, rec.ID)
}

// GetByID fetches a record by identifier. A missing row returns (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM roster_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// FindByHandle returns the record with an exact handle match, or nil.
func (s *Store) FindByHandle(ctx context.Context, handle string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM roster_records WHERE handle = ?`, handle)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by handle: %w", err)
	}
	return rec, nil
}

// List returns all records ordered by id.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	return s.list(ctx, `SELECT `+recordColumns+` FROM roster_records ORDER BY id`)
}

// ListUnresolved returns records without a linked entity, ordered by id.
func (s *Store) ListUnresolved(ctx context.Context) ([]*Record, error) {
	return s.list(ctx, `SELECT `+recordColumns+` FROM roster_records WHERE entity_id IS NULL OR entity_id = '' ORDER BY id`)
}

// ListResolved returns records with a linked entity, ordered by id.
func (s *Store) ListResolved(ctx context.Context) ([]*Record, error) {
	return s.list(ctx, `SELECT `+recordColumns+` FROM roster_records WHERE entity_id IS NOT NULL AND entity_id != '' ORDER BY id`)
}

func (s *Store) list(ctx context.Context, query string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LinkEntity sets a record's entity id, guarded by "identifier currently
// null". Returns false without error when the guard fails (a lost race).
func (s *Store) LinkEntity(ctx context.Context, id int64, entityID string) (bool, error) {
	if entityID == "" {
		return false, errors.New("entity id is required")
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE roster_records
         SET entity_id = ?, updated_at = ?
         WHERE id = ? AND (entity_id IS NULL OR entity_id = '')`,
		entityID,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("link entity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("link entity rows: %w", err)
	}
	return affected == 1, nil
}

// Health aggregates record counts for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1),
        COALESCE(SUM(CASE WHEN entity_id IS NOT NULL AND entity_id != '' THEN 1 ELSE 0 END), 0)
        FROM roster_records`)
	var health HealthSummary
	if err := row.Scan(&health.Total, &health.Resolved); err != nil {
		return HealthSummary{}, fmt.Errorf("roster stats: %w", err)
	}
	health.Unresolved = health.Total - health.Resolved
	return health, nil
}

const recordColumns = "id, entity_id, handle, display_name, tier, position, position_override, squad, captain, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id               int64
		entityID         sql.NullString
		handle           string
		displayName      sql.NullString
		tier             sql.NullString
		position         sql.NullString
		positionOverride sql.NullString
		squad            sql.NullString
		captain          sql.NullInt64
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&entityID,
		&handle,
		&displayName,
		&tier,
		&position,
		&positionOverride,
		&squad,
		&captain,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:               id,
		EntityID:         entityID.String,
		Handle:           handle,
		DisplayName:      displayName.String,
		Tier:             tier.String,
		Position:         position.String,
		PositionOverride: positionOverride.String,
		Squad:            squad.String,
		Captain:          captain.Valid && captain.Int64 != 0,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
