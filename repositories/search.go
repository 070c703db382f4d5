package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
)

// SearchHit is one full-text match over the message log.
type SearchHit struct {
	ID   string
	User string
	Text string
	At   time.Time
}

// SearchIndex exposes the read side of the bluge index fed by
// MessageRepository.Append.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) SearchIndex {
	return SearchIndex{writer: writer, log: log}
}

// Search returns up to limit messages matching the query, best score first.
func (s SearchIndex) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	match := bluge.NewMatchQuery(query).SetField("text")
	request := bluge.NewTopNSearch(limit, match).SortBy([]string{"-_score"})

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for {
		next, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		var hit SearchHit
		err = next.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case "user":
				hit.User = string(value)
			case "text":
				hit.Text = string(value)
			case "at":
				if at, err := bluge.DecodeDateTime(value); err == nil {
					hit.At = at
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
