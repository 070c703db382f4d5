package main

import (
	"chatroom/domain"
	"chatroom/internal"
	"chatroom/projection"
	"chatroom/repositories"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

// Read-only inspection of the badger-backed message log. Prints the recent
// window the way the chat UI would bound it.
func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if config.BadgerFilepath == "" {
		log.Fatal("BADGER_FILEPATH is required")
	}

	location, err := config.Location()
	if err != nil {
		log.Fatalf("Timezone error: %v", err)
	}

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening if another process (the server) holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	messages, err := readMessages(db)
	if err != nil {
		log.Fatalf("Failed to read messages: %v", err)
	}
	recent := projection.Recent(messages, config.RecentLimit)

	header := fmt.Sprintf(" chatroom — %d of %d messages ", len(recent), len(messages))
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "User", "Lang", "Text"})
	for _, m := range recent {
		table.Append([]string{
			m.At.In(location).Format(repositories.TimestampLayout),
			m.User,
			m.Lang,
			m.Text,
		})
	}
	table.Render()

	online := projection.OnlineUsers(recent, time.Now(), config.PresenceWindow)
	fmt.Printf("Online (last %s): %v\n", config.PresenceWindow, online)
}

func readMessages(db *badger.DB) ([]domain.Message, error) {
	var messages []domain.Message
	err := db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				message, err := repositories.DecodeStored(value)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}
