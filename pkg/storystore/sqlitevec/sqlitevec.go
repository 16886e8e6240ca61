// Package sqlitevec provides the default durable story store: SQLite for
// story rows and the version log, with sqlite-vec for KNN semantic search.
// Lexical matching and score combination happen in-process so the driver can
// serve combined semantic+lexical queries from a single file-backed database.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hearthside/loom/pkg/story"
	"github.com/hearthside/loom/pkg/storystore"
	"github.com/hearthside/loom/pkg/storystore/rank"
)

const defaultSearchLimit = 3

// knnOverfetch widens the KNN candidate pool so user filtering and score
// combination still have enough rows to fill the requested limit.
const knnOverfetch = 4

// Store implements storystore.Store using SQLite with sqlite-vec.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the SQLite story store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the embedding vector width. Required; the vec0
	// virtual table is fixed-width.
	Dimensions uint
}

// New creates a SQLite-backed story store with sqlite-vec loaded.
func New(c Config, logger *zap.Logger) (*Store, error) {
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := createSchema(db, c.Dimensions); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite story store initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Store{db: db, logger: logger}, nil
}

func createSchema(db *sql.DB, dimensions uint) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stories (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			narrative TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			brief_summary TEXT NOT NULL DEFAULT '',
			people TEXT NOT NULL DEFAULT '[]',
			places TEXT NOT NULL DEFAULT '[]',
			dates TEXT NOT NULL DEFAULT '[]',
			events TEXT NOT NULL DEFAULT '[]',
			relationships TEXT NOT NULL DEFAULT '[]',
			tone TEXT NOT NULL DEFAULT 'neutral',
			emotional_tags TEXT NOT NULL DEFAULT '[]',
			significance INTEGER NOT NULL DEFAULT 3,
			privacy TEXT NOT NULL DEFAULT 'private',
			version INTEGER NOT NULL DEFAULT 1,
			is_complete INTEGER NOT NULL DEFAULT 0,
			source_memory_ids TEXT NOT NULL DEFAULT '[]',
			conversation_ids TEXT NOT NULL DEFAULT '[]',
			access_count INTEGER NOT NULL DEFAULT 0,
			last_accessed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			embedding BLOB
		)
	`)
	if err != nil {
		return fmt.Errorf("creating stories table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS story_versions (
			story_id TEXT NOT NULL REFERENCES stories(id),
			version_number INTEGER NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			narrative TEXT NOT NULL DEFAULT '',
			change_type TEXT NOT NULL,
			change_summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (story_id, version_number)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating story_versions table: %w", err)
	}

	// vec0 virtual tables use integer rowids, so a mapping table links
	// string story IDs to rowids.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_stories (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			story_id TEXT NOT NULL UNIQUE
		)
	`)
	if err != nil {
		return fmt.Errorf("creating vec_stories table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_story_embeddings USING vec0(embedding float[%d])`,
		dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	return nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SaveStory persists a new story. Fails if the ID already exists.
func (s *Store) SaveStory(ctx context.Context, st *story.Story) error {
	if st == nil {
		return errors.New("cannot save nil story")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	cols, err := encodeStory(st)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stories (
			id, user_id, title, content, narrative, summary, brief_summary,
			people, places, dates, events, relationships,
			tone, emotional_tags, significance, privacy, version, is_complete,
			source_memory_ids, conversation_ids, access_count, last_accessed_at,
			created_at, updated_at, embedding
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cols...,
	)
	if err != nil {
		return fmt.Errorf("inserting story %s: %w", st.ID, err)
	}

	if len(st.Embedding) > 0 {
		if err := upsertEmbeddingTx(ctx, tx, st.ID, st.Embedding); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing story insert: %w", err)
	}

	s.logger.Debug("story saved",
		zap.String("story_id", string(st.ID)),
		zap.String("user_id", st.UserID),
		zap.Bool("has_embedding", len(st.Embedding) > 0),
	)
	return nil
}

// UpdateStory overwrites an existing story's fields.
func (s *Store) UpdateStory(ctx context.Context, st *story.Story) error {
	if st == nil {
		return errors.New("cannot update nil story")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	cols, err := encodeStory(st)
	if err != nil {
		return err
	}
	// encodeStory emits id first; UPDATE binds it last in the WHERE clause.
	args := append(cols[1:], cols[0])

	res, err := tx.ExecContext(ctx, `
		UPDATE stories SET
			user_id = ?, title = ?, content = ?, narrative = ?, summary = ?, brief_summary = ?,
			people = ?, places = ?, dates = ?, events = ?, relationships = ?,
			tone = ?, emotional_tags = ?, significance = ?, privacy = ?, version = ?, is_complete = ?,
			source_memory_ids = ?, conversation_ids = ?, access_count = ?, last_accessed_at = ?,
			created_at = ?, updated_at = ?, embedding = ?
		WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating story %s: %w", st.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return storystore.NotFoundError{ID: st.ID}
	}

	if len(st.Embedding) > 0 {
		if err := upsertEmbeddingTx(ctx, tx, st.ID, st.Embedding); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing story update: %w", err)
	}
	return nil
}

func upsertEmbeddingTx(ctx context.Context, tx *sql.Tx, id story.ID, embedding []float32) error {
	var rowid int64
	err := tx.QueryRowContext(ctx, `SELECT rowid FROM vec_stories WHERE story_id = ?`, string(id)).Scan(&rowid)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, `INSERT INTO vec_stories (story_id) VALUES (?)`, string(id))
		if err != nil {
			return fmt.Errorf("inserting vec mapping for %s: %w", id, err)
		}
		rowid, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading vec mapping rowid: %w", err)
		}
	case err != nil:
		return fmt.Errorf("looking up vec mapping for %s: %w", id, err)
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_story_embeddings WHERE rowid = ?`, rowid); err != nil {
			return fmt.Errorf("clearing old embedding for %s: %w", id, err)
		}
	}

	blob := serializeFloat32(embedding)
	if _, err := tx.ExecContext(ctx, `INSERT INTO vec_story_embeddings (rowid, embedding) VALUES (?, ?)`, rowid, blob); err != nil {
		return fmt.Errorf("inserting embedding for %s: %w", id, err)
	}
	return nil
}

// GetStory retrieves a story by ID, scoped to its owning user.
func (s *Store) GetStory(ctx context.Context, userID string, id story.ID) (*story.Story, error) {
	row := s.db.QueryRowContext(ctx, selectStoryColumns+` FROM stories WHERE id = ? AND user_id = ?`, string(id), userID)
	st, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storystore.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading story %s: %w", id, err)
	}
	return st, nil
}

// SearchStories runs a combined semantic+lexical search: a vec0 KNN pass
// when a query embedding is present, a token LIKE pass for lexical
// candidates, then in-process score combination over the union.
func (s *Store) SearchStories(ctx context.Context, userID string, q storystore.Query, opts storystore.SearchOptions) ([]storystore.Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	semantic := map[story.ID]float32{}
	if len(q.Embedding) > 0 {
		sims, err := s.knn(ctx, q.Embedding, limit*knnOverfetch)
		if err != nil {
			return nil, err
		}
		semantic = sims
	}

	candidates, err := s.lexicalCandidates(ctx, userID, q.Text)
	if err != nil {
		return nil, err
	}
	for id := range semantic {
		candidates[id] = struct{}{}
	}

	var results []storystore.Result
	for id := range candidates {
		st, err := s.GetStory(ctx, userID, id)
		if err != nil {
			// KNN hits are not user-scoped; skip other users' stories.
			if errors.As(err, &storystore.NotFoundError{}) {
				continue
			}
			return nil, err
		}

		sem := float32(-1)
		if v, ok := semantic[id]; ok {
			sem = v
		}
		score := rank.Combine(rank.Lexical(q.Text, st), sem)
		if score <= 0 {
			continue
		}
		results = append(results, storystore.Result{Story: st, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	s.logger.Debug("story search",
		zap.String("user_id", userID),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// knn returns story IDs and similarity scores for the k nearest embeddings.
// sqlite-vec reports L2 distance; it maps to (0,1] via 1/(1+distance).
func (s *Store) knn(ctx context.Context, embedding []float32, k int) (map[story.ID]float32, error) {
	blob := serializeFloat32(embedding)
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.story_id, e.distance
		FROM vec_story_embeddings e
		JOIN vec_stories v ON v.rowid = e.rowid
		WHERE e.embedding MATCH ? AND k = ?
		ORDER BY e.distance`,
		blob, k,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	sims := make(map[story.ID]float32)
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, fmt.Errorf("scanning vector result: %w", err)
		}
		sims[story.ID(id)] = float32(1.0 / (1.0 + distance))
	}
	return sims, rows.Err()
}

func (s *Store) lexicalCandidates(ctx context.Context, userID, queryText string) (map[story.ID]struct{}, error) {
	candidates := make(map[story.ID]struct{})
	tokens := rank.Tokens(queryText)
	if len(tokens) == 0 {
		return candidates, nil
	}

	clause := `SELECT id FROM stories WHERE user_id = ? AND (`
	args := []any{userID}
	for i, token := range tokens {
		if i > 0 {
			clause += ` OR `
		}
		clause += `(title LIKE ? OR content LIKE ? OR summary LIKE ? OR brief_summary LIKE ? OR people LIKE ? OR places LIKE ? OR events LIKE ?)`
		pattern := "%" + token + "%"
		for range 7 {
			args = append(args, pattern)
		}
	}
	clause += `)`

	rows, err := s.db.QueryContext(ctx, clause, args...)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning lexical result: %w", err)
		}
		candidates[story.ID(id)] = struct{}{}
	}
	return candidates, rows.Err()
}

// TouchAccess increments a story's access count and refreshes its
// last-accessed timestamp.
func (s *Store) TouchAccess(ctx context.Context, id story.ID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE stories SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ?`,
		at, string(id),
	)
	if err != nil {
		return fmt.Errorf("touching story %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking touch result: %w", err)
	}
	if affected == 0 {
		return storystore.NotFoundError{ID: id}
	}
	return nil
}

// AppendVersion writes one row to a story's version log.
func (s *Store) AppendVersion(ctx context.Context, v *story.Version) error {
	if v == nil {
		return errors.New("cannot append nil version")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO story_versions (story_id, version_number, content, narrative, change_type, change_summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(v.StoryID), v.VersionNumber, v.Content, v.Narrative, string(v.ChangeType), v.ChangeSummary, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting version %d of story %s: %w", v.VersionNumber, v.StoryID, err)
	}
	return nil
}

// ListVersions returns a story's version log, oldest first.
func (s *Store) ListVersions(ctx context.Context, id story.ID) ([]*story.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT story_id, version_number, content, narrative, change_type, change_summary, created_at
		FROM story_versions WHERE story_id = ? ORDER BY version_number`,
		string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("listing versions of story %s: %w", id, err)
	}
	defer rows.Close()

	var versions []*story.Version
	for rows.Next() {
		var v story.Version
		var storyID, changeType string
		if err := rows.Scan(&storyID, &v.VersionNumber, &v.Content, &v.Narrative, &changeType, &v.ChangeSummary, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning version row: %w", err)
		}
		v.StoryID = story.ID(storyID)
		v.ChangeType = story.ChangeType(changeType)
		versions = append(versions, &v)
	}
	return versions, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectStoryColumns = `
	SELECT id, user_id, title, content, narrative, summary, brief_summary,
		people, places, dates, events, relationships,
		tone, emotional_tags, significance, privacy, version, is_complete,
		source_memory_ids, conversation_ids, access_count, last_accessed_at,
		created_at, updated_at, embedding`

// encodeStory flattens a story into the column order used by INSERT, id first.
func encodeStory(st *story.Story) ([]any, error) {
	people, err := marshalJSON(st.People)
	if err != nil {
		return nil, fmt.Errorf("encoding people: %w", err)
	}
	places, err := marshalJSON(st.Places)
	if err != nil {
		return nil, fmt.Errorf("encoding places: %w", err)
	}
	dates, err := marshalJSON(st.Dates)
	if err != nil {
		return nil, fmt.Errorf("encoding dates: %w", err)
	}
	events, err := marshalJSON(st.Events)
	if err != nil {
		return nil, fmt.Errorf("encoding events: %w", err)
	}
	relationships, err := marshalJSON(st.Relationships)
	if err != nil {
		return nil, fmt.Errorf("encoding relationships: %w", err)
	}
	tags, err := marshalJSON(st.EmotionalTags)
	if err != nil {
		return nil, fmt.Errorf("encoding emotional tags: %w", err)
	}
	sourceIDs, err := marshalJSON(st.SourceMemoryIDs)
	if err != nil {
		return nil, fmt.Errorf("encoding source memory ids: %w", err)
	}
	conversationIDs, err := marshalJSON(st.ConversationIDs)
	if err != nil {
		return nil, fmt.Errorf("encoding conversation ids: %w", err)
	}

	var lastAccessed any
	if st.LastAccessedAt != nil {
		lastAccessed = *st.LastAccessedAt
	}
	var embedding any
	if len(st.Embedding) > 0 {
		embedding = serializeFloat32(st.Embedding)
	}

	return []any{
		string(st.ID), st.UserID, st.Title, st.Content, st.Narrative, st.Summary, st.BriefSummary,
		people, places, dates, events, relationships,
		st.Tone, tags, st.SignificanceRating, string(st.PrivacyLevel), st.Version, st.IsComplete,
		sourceIDs, conversationIDs, st.AccessCount, lastAccessed,
		st.CreatedAt, st.UpdatedAt, embedding,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(row rowScanner) (*story.Story, error) {
	var st story.Story
	var id, privacy string
	var people, places, dates, events, relationships, tags, sourceIDs, conversationIDs string
	var lastAccessed sql.NullTime
	var embedding []byte

	err := row.Scan(
		&id, &st.UserID, &st.Title, &st.Content, &st.Narrative, &st.Summary, &st.BriefSummary,
		&people, &places, &dates, &events, &relationships,
		&st.Tone, &tags, &st.SignificanceRating, &privacy, &st.Version, &st.IsComplete,
		&sourceIDs, &conversationIDs, &st.AccessCount, &lastAccessed,
		&st.CreatedAt, &st.UpdatedAt, &embedding,
	)
	if err != nil {
		return nil, err
	}

	st.ID = story.ID(id)
	st.PrivacyLevel = story.PrivacyLevel(privacy)
	if lastAccessed.Valid {
		t := lastAccessed.Time
		st.LastAccessedAt = &t
	}

	for _, pair := range []struct {
		raw  string
		dest any
	}{
		{people, &st.People},
		{places, &st.Places},
		{dates, &st.Dates},
		{events, &st.Events},
		{relationships, &st.Relationships},
		{tags, &st.EmotionalTags},
		{sourceIDs, &st.SourceMemoryIDs},
		{conversationIDs, &st.ConversationIDs},
	} {
		if pair.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return nil, fmt.Errorf("decoding story %s fields: %w", id, err)
		}
	}

	if len(embedding) > 0 {
		vec, err := deserializeFloat32(embedding)
		if err != nil {
			return nil, fmt.Errorf("decoding story %s embedding: %w", id, err)
		}
		st.Embedding = vec
	}

	return &st, nil
}
