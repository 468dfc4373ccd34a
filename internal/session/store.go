package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tripalhq/tripal/internal/log"
)

// Querier is the database surface the store needs. *pgxpool.Pool satisfies
// it; tests provide a fake.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store persists session tokens and conversation exchanges. Safe for
// concurrent use: all operations are single-statement inserts or lookups.
type Store struct {
	db     Querier
	logger log.Logger
}

// New creates a Store.
func New(db Querier, logger log.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("querier is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Store{db: db, logger: logger}, nil
}

// CreateToken inserts a session token row and returns its generated id.
// Inserting an existing token returns ErrDuplicateToken.
func (s *Store) CreateToken(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, errors.New("token is required")
	}

	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO tokens (token) VALUES ($1) RETURNING id`,
		token,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateToken, token)
		}
		return 0, fmt.Errorf("insert token: %w", err)
	}

	s.logger.Debug("session token created", "token_id", id)
	return id, nil
}

// TokenID looks up the id of an issued token.
func (s *Store) TokenID(ctx context.Context, token string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`SELECT id FROM tokens WHERE token = $1`,
		token,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("look up token: %w", err)
	}
	return id, nil
}

// InsertConversation appends one exchange for the given token id.
func (s *Store) InsertConversation(ctx context.Context, tokenID int64, input, output string, ts time.Time) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO conversation_history (token_id, input_text, output_text, conversation_timestamp)
		 VALUES ($1, $2, $3, $4)`,
		tokenID, input, output, ts,
	)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// Record implements the agent's Recorder contract: resolve the session key
// to its token id and append the exchange. Sessions that connected without
// going through token issuance get a token row on first record.
func (s *Store) Record(ctx context.Context, sessionKey, input, output string, ts time.Time) error {
	id, err := s.TokenID(ctx, sessionKey)
	if errors.Is(err, ErrTokenNotFound) {
		id, err = s.CreateToken(ctx, sessionKey)
		if errors.Is(err, ErrDuplicateToken) {
			// Lost a race with a concurrent first record.
			id, err = s.TokenID(ctx, sessionKey)
		}
	}
	if err != nil {
		return err
	}
	return s.InsertConversation(ctx, id, input, output, ts)
}

// Ping verifies database connectivity (health checks).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
