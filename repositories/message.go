//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chatroom/domain"
	"chatroom/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// IMessageRepository is the append-only log contract consumed by the feed
// service. ReadAll returns every stored message in insertion order; callers
// are expected to bound what they keep. Append durably adds one entry to the
// end of the log.
type IMessageRepository interface {
	ReadAll(ctx context.Context) ([]domain.Message, error)
	Append(ctx context.Context, message domain.Message) error
}

type MessageRepository struct {
	db    *badger.DB
	index *bluge.Writer
	log   *slog.Logger
}

func NewMessageRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, index: index, log: log}
}

type storedMessage struct {
	ID   string `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
	Lang string `json:"lang,omitempty"`
	At   int64  `json:"at"`
}

// Append persists a message in BadgerDB.
// The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same second.
func (m MessageRepository) Append(_ context.Context, message domain.Message) error {
	key := fmt.Sprintf("msg:%019d:%s", message.At.UnixNano(), message.ID)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	if m.index != nil {
		if err := m.indexMessage(message); err != nil {
			// Search is best effort, the log entry itself is already durable.
			m.log.Warn("Failed to index message", "id", message.ID, "error", err)
		}
	}
	return nil
}

// ReadAll retrieves every message using a prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally sorted by time.
func (m MessageRepository) ReadAll(_ context.Context) ([]domain.Message, error) {
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	var messages []domain.Message
	for _, b := range byteMessages {
		var stored storedMessage
		if err = json.Unmarshal(b, &stored); err != nil {
			return nil, err
		}
		message, err := toMessage(stored)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (m MessageRepository) indexMessage(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("user", message.User).StoreValue()).
		AddField(bluge.NewTextField("text", message.Text).StoreValue()).
		AddField(bluge.NewDateTimeField("at", message.At).StoreValue())
	return m.index.Update(doc.ID(), doc)
}

// DecodeStored turns one raw badger value back into a Message.
// Used by the read-only viewer.
func DecodeStored(value []byte) (domain.Message, error) {
	var stored storedMessage
	if err := json.Unmarshal(value, &stored); err != nil {
		return domain.Message{}, err
	}
	return toMessage(stored)
}

func fromMessage(message domain.Message) storedMessage {
	return storedMessage{
		ID:   message.ID.String(),
		User: message.User,
		Text: message.Text,
		Lang: message.Lang,
		At:   message.At.UnixNano(),
	}
}

func toMessage(stored storedMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(stored.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:   parsedID,
		User: stored.User,
		Text: stored.Text,
		Lang: stored.Lang,
		At:   time.Unix(0, stored.At).UTC(),
	}, nil
}
