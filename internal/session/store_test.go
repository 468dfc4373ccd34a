package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tripalhq/tripal/internal/log"
)

type execCall struct {
	sql  string
	args []any
}

// fakeQuerier routes QueryRow scans through scripted token state and
// records Exec calls.
type fakeQuerier struct {
	tokens     map[string]int64
	nextID     int64
	execCalls  []execCall
	execErr    error
	scanErr    error
	pingErr    error
	duplicates bool
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{tokens: make(map[string]int64), nextID: 1}
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return fakeRow{scan: func(dest ...any) error {
		if f.scanErr != nil {
			return f.scanErr
		}
		token, _ := args[0].(string)

		switch {
		case strings.HasPrefix(sql, "INSERT INTO tokens"):
			if _, exists := f.tokens[token]; exists || f.duplicates {
				return &pgconn.PgError{Code: "23505"}
			}
			id := f.nextID
			f.nextID++
			f.tokens[token] = id
			*dest[0].(*int64) = id
			return nil

		case strings.HasPrefix(sql, "SELECT id FROM tokens"):
			id, ok := f.tokens[token]
			if !ok {
				return pgx.ErrNoRows
			}
			*dest[0].(*int64) = id
			return nil
		}
		return errors.New("unexpected query: " + sql)
	}}
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	f.execCalls = append(f.execCalls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeQuerier) Ping(context.Context) error { return f.pingErr }

func newTestStore(t *testing.T, q Querier) *Store {
	t.Helper()

	store, err := New(q, log.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return store
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, log.NewNop()); err == nil {
		t.Error("New(nil querier) expected error, got nil")
	}
	if _, err := New(newFakeQuerier(), nil); err == nil {
		t.Error("New(nil logger) expected error, got nil")
	}
}

func TestStore_CreateToken(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newFakeQuerier())
	ctx := context.Background()

	id, err := store.CreateToken(ctx, "session-abc")
	if err != nil {
		t.Fatalf("CreateToken() error: %v", err)
	}
	if id != 1 {
		t.Errorf("CreateToken() id = %d, want 1", id)
	}

	if _, err := store.CreateToken(ctx, "session-abc"); !errors.Is(err, ErrDuplicateToken) {
		t.Errorf("CreateToken() duplicate error = %v, want ErrDuplicateToken", err)
	}

	if _, err := store.CreateToken(ctx, ""); err == nil {
		t.Error("CreateToken(\"\") expected error, got nil")
	}
}

func TestStore_TokenID(t *testing.T) {
	t.Parallel()

	q := newFakeQuerier()
	store := newTestStore(t, q)
	ctx := context.Background()

	created, err := store.CreateToken(ctx, "session-abc")
	if err != nil {
		t.Fatalf("CreateToken() error: %v", err)
	}

	id, err := store.TokenID(ctx, "session-abc")
	if err != nil {
		t.Fatalf("TokenID() error: %v", err)
	}
	if id != created {
		t.Errorf("TokenID() = %d, want %d", id, created)
	}

	if _, err := store.TokenID(ctx, "missing"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("TokenID(missing) error = %v, want ErrTokenNotFound", err)
	}
}

func TestStore_Record(t *testing.T) {
	t.Parallel()

	q := newFakeQuerier()
	store := newTestStore(t, q)
	ctx := context.Background()
	ts := time.Date(2025, 4, 1, 18, 30, 0, 0, time.UTC)

	// The session key has no token row yet: Record creates one.
	if err := store.Record(ctx, "session-new", "質問", "回答", ts); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	if len(q.execCalls) != 1 {
		t.Fatalf("Exec called %d times, want 1", len(q.execCalls))
	}
	call := q.execCalls[0]
	if !strings.Contains(call.sql, "conversation_history") {
		t.Errorf("Exec sql = %q", call.sql)
	}
	if call.args[1] != "質問" || call.args[2] != "回答" {
		t.Errorf("Exec args = %v", call.args)
	}
	if got, _ := call.args[3].(time.Time); !got.Equal(ts) {
		t.Errorf("Exec timestamp = %v, want %v", call.args[3], ts)
	}

	// Second record for the same key reuses the token row.
	if err := store.Record(ctx, "session-new", "質問2", "回答2", ts); err != nil {
		t.Fatalf("Record() second error: %v", err)
	}
	if len(q.execCalls) != 2 {
		t.Errorf("Exec called %d times, want 2", len(q.execCalls))
	}
	if q.execCalls[0].args[0] != q.execCalls[1].args[0] {
		t.Errorf("token ids differ across records: %v vs %v", q.execCalls[0].args[0], q.execCalls[1].args[0])
	}
}

func TestStore_RecordInsertFailure(t *testing.T) {
	t.Parallel()

	q := newFakeQuerier()
	q.execErr = errors.New("storage unavailable")
	store := newTestStore(t, q)

	err := store.Record(context.Background(), "session-x", "in", "out", time.Now())
	if err == nil {
		t.Fatal("Record() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "insert conversation") {
		t.Errorf("Record() error = %v", err)
	}
}

func TestStore_Ping(t *testing.T) {
	t.Parallel()

	q := newFakeQuerier()
	store := newTestStore(t, q)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}

	q.pingErr = errors.New("down")
	if err := store.Ping(context.Background()); err == nil {
		t.Error("Ping() expected error, got nil")
	}
}
