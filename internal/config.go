package internal

import (
	"fmt"
	"time"
)

// Store backends selectable at deployment time.
const (
	BackendBadger = "badger"
	BackendSheets = "sheets"
)

type Config struct {
	StoreBackend    string `env:"STORE_BACKEND,default=badger"`
	BadgerFilepath  string `env:"BADGER_FILEPATH"`
	BlugeFilepath   string `env:"BLUGE_FILEPATH"`
	SpreadsheetID   string `env:"SPREADSHEET_ID"`
	SheetRange      string `env:"SHEET_RANGE,default=chatroom!A:C"`
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`

	RecentLimit       int           `env:"RECENT_LIMIT,default=50"`
	PresenceWindow    time.Duration `env:"PRESENCE_WINDOW,default=5m"`
	PollInterval      time.Duration `env:"POLL_INTERVAL,default=10s"`
	StoreTimeout      time.Duration `env:"STORE_TIMEOUT,default=10s"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=5s"`

	Timezone string `env:"TIMEZONE,default=UTC"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`

	CensoredWordsFile string `env:"CENSORED_WORDS_FILE"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`
}

// Location resolves the single deployment-wide time zone. Every stored
// timestamp, every presence comparison and the sheet column format use it.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q is not a valid IANA name: %w", c.Timezone, err)
	}
	return loc, nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// Validate checks backend-specific requirements before anything opens.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendBadger:
		if c.BadgerFilepath == "" {
			return fmt.Errorf("BADGER_FILEPATH is required with STORE_BACKEND=badger")
		}
	case BackendSheets:
		if c.SpreadsheetID == "" {
			return fmt.Errorf("SPREADSHEET_ID is required with STORE_BACKEND=sheets")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}
