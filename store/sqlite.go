package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/nothinking/movietalk/subtitle"
)

type preparedStatementKey string

const (
	selectSubtitlesStmt  preparedStatementKey = "selectSubtitlesStmt"
	upsertSubtitlesStmt  preparedStatementKey = "upsertSubtitlesStmt"
	deleteSubtitlesStmt  preparedStatementKey = "deleteSubtitlesStmt"
	listExpressionsStmt  preparedStatementKey = "listExpressionsStmt"
	upsertExpressionStmt preparedStatementKey = "upsertExpressionStmt"
	selectExpressionStmt preparedStatementKey = "selectExpressionStmt"
	deleteExpressionStmt preparedStatementKey = "deleteExpressionStmt"
	listFavoritesStmt    preparedStatementKey = "listFavoritesStmt"
	upsertFavoriteStmt   preparedStatementKey = "upsertFavoriteStmt"
	deleteFavoriteStmt   preparedStatementKey = "deleteFavoriteStmt"
)

// SQLite is the persistence backend for authenticated sessions. Bind it
// to a user with ForUser to get a Store.
type SQLite struct {
	db                 *sql.DB
	preparedStatements map[preparedStatementKey]*sql.Stmt
}

// OpenSQLite opens (creating if needed) the database at dbPath and
// prepares all statements.
func OpenSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	schemaBytes, err := SchemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close() // nolint: errcheck
		log.Error().Err(err).Msg("Failed to read schema.sql")
		return nil, err
	}
	_, err = db.Exec(string(schemaBytes))
	if err != nil {
		db.Close() // nolint: errcheck
		log.Error().Err(err).Msg("Failed to execute schema.sql")
		return nil, err
	}

	preparedStatements := make(map[preparedStatementKey]*sql.Stmt)
	for key, query := range map[preparedStatementKey]string{
		selectSubtitlesStmt:  `SELECT data FROM user_subtitles WHERE user_id = ? AND video_id = ?`,
		upsertSubtitlesStmt:  `INSERT INTO user_subtitles (user_id, video_id, data, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP) ON CONFLICT (user_id, video_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		deleteSubtitlesStmt:  `DELETE FROM user_subtitles WHERE user_id = ? AND video_id = ?`,
		listExpressionsStmt:  `SELECT id, video_id, word, actual, meaning, sentence FROM expressions WHERE user_id = ? ORDER BY id ASC`,
		upsertExpressionStmt: `INSERT INTO expressions (user_id, video_id, word, actual, meaning, sentence) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (user_id, video_id, word) DO UPDATE SET actual = excluded.actual, meaning = excluded.meaning, sentence = excluded.sentence`,
		selectExpressionStmt: `SELECT id, video_id, word, actual, meaning, sentence FROM expressions WHERE user_id = ? AND video_id = ? AND word = ?`,
		deleteExpressionStmt: `DELETE FROM expressions WHERE user_id = ? AND id = ?`,
		listFavoritesStmt:    `SELECT video_id FROM favorites WHERE user_id = ? ORDER BY rowid ASC`,
		upsertFavoriteStmt:   `INSERT INTO favorites (user_id, video_id) VALUES (?, ?) ON CONFLICT (user_id, video_id) DO NOTHING`,
		deleteFavoriteStmt:   `DELETE FROM favorites WHERE user_id = ? AND video_id = ?`,
	} {
		stmt, err := db.Prepare(query)
		if err != nil {
			db.Close() // nolint: errcheck
			return nil, err
		}
		preparedStatements[key] = stmt
	}

	return &SQLite{
		db:                 db,
		preparedStatements: preparedStatements,
	}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// ForUser binds the database to one user id, yielding the Store the
// session consumes.
func (s *SQLite) ForUser(userID string) Store {
	return &userStore{db: s, userID: userID}
}

type userStore struct {
	db     *SQLite
	userID string
}

func (u *userStore) stmt(key preparedStatementKey) *sql.Stmt {
	return u.db.preparedStatements[key]
}

func (u *userStore) UserSubtitles(ctx context.Context, videoID string) (subtitle.Sequence, error) {
	var data string
	err := u.stmt(selectSubtitlesStmt).QueryRowContext(ctx, u.userID, videoID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var seq subtitle.Sequence
	if err := json.Unmarshal([]byte(data), &seq); err != nil {
		return nil, fmt.Errorf("error decoding stored subtitles for %s: %v", videoID, err)
	}
	return seq, nil
}

func (u *userStore) SaveUserSubtitles(ctx context.Context, videoID string, seq subtitle.Sequence) error {
	data, err := json.Marshal(seq)
	if err != nil {
		return fmt.Errorf("error encoding subtitles for %s: %v", videoID, err)
	}
	_, err = u.stmt(upsertSubtitlesStmt).ExecContext(ctx, u.userID, videoID, string(data))
	return err
}

func (u *userStore) ResetUserSubtitles(ctx context.Context, videoID string) error {
	_, err := u.stmt(deleteSubtitlesStmt).ExecContext(ctx, u.userID, videoID)
	return err
}

func (u *userStore) SavedExpressions(ctx context.Context) ([]Expression, error) {
	rows, err := u.stmt(listExpressionsStmt).QueryContext(ctx, u.userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Expression
	for rows.Next() {
		var e Expression
		err := rows.Scan(&e.ID, &e.VideoID, &e.Word, &e.Actual, &e.Meaning, &e.Sentence)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

func (u *userStore) AddSavedExpression(ctx context.Context, expr Expression) (Expression, error) {
	_, err := u.stmt(upsertExpressionStmt).ExecContext(ctx,
		u.userID, expr.VideoID, expr.Word, expr.Actual, expr.Meaning, expr.Sentence)
	if err != nil {
		return Expression{}, err
	}
	var saved Expression
	err = u.stmt(selectExpressionStmt).QueryRowContext(ctx, u.userID, expr.VideoID, expr.Word).
		Scan(&saved.ID, &saved.VideoID, &saved.Word, &saved.Actual, &saved.Meaning, &saved.Sentence)
	if err != nil {
		return Expression{}, err
	}
	return saved, nil
}

func (u *userStore) RemoveSavedExpression(ctx context.Context, id int64) error {
	res, err := u.stmt(deleteExpressionStmt).ExecContext(ctx, u.userID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (u *userStore) FavoriteVideos(ctx context.Context) ([]string, error) {
	rows, err := u.stmt(listFavoritesStmt).QueryContext(ctx, u.userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (u *userStore) AddFavoriteVideo(ctx context.Context, videoID string) error {
	_, err := u.stmt(upsertFavoriteStmt).ExecContext(ctx, u.userID, videoID)
	return err
}

func (u *userStore) RemoveFavoriteVideo(ctx context.Context, videoID string) error {
	_, err := u.stmt(deleteFavoriteStmt).ExecContext(ctx, u.userID, videoID)
	return err
}
