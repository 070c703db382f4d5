package repositories

import (
	"chatroom/domain"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Append_And_ReadAll_PreservesOrder(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, nil, slog.Default())
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Second)
	messages := []domain.Message{
		{ID: uuid.New(), User: "Alice", Text: "first", At: at},
		{ID: uuid.New(), User: "Bob", Text: "second", At: at.Add(1 * time.Minute)},
		{ID: uuid.New(), User: "Clara", Text: "third", At: at.Add(2 * time.Minute)},
	}
	for _, m := range messages {
		req.NoError(repository.Append(ctx, m))
	}

	fetched, err := repository.ReadAll(ctx)
	req.NoError(err)
	req.Equal(messages, fetched)
}

func Test_ReadAll_EmptyLog(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, nil, slog.Default())
	fetched, err := repository.ReadAll(context.Background())
	req.NoError(err)
	req.Empty(fetched)
}

func Test_Append_SameTimestampKeepsBothRows(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, nil, slog.Default())
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Second)

	// Two messages may share a timestamp; the uuid in the key disambiguates.
	req.NoError(repository.Append(ctx, domain.Message{ID: uuid.New(), User: "Alice", Text: "same tick", At: at}))
	req.NoError(repository.Append(ctx, domain.Message{ID: uuid.New(), User: "Bob", Text: "same tick", At: at}))

	fetched, err := repository.ReadAll(ctx)
	req.NoError(err)
	req.Len(fetched, 2)
}

func Test_ReadAll_DoesNotMutateLog(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, nil, slog.Default())
	ctx := context.Background()
	req.NoError(repository.Append(ctx, domain.Message{
		ID: uuid.New(), User: "Alice", Text: "hello", At: time.Now().UTC().Truncate(time.Second),
	}))

	first, err := repository.ReadAll(ctx)
	req.NoError(err)
	second, err := repository.ReadAll(ctx)
	req.NoError(err)
	req.Equal(first, second)
}
