package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("*")
	req.NoError(err)
	req.Equal('*', r)

	_, err = CharacterRune("")
	req.Error(err)
	_, err = CharacterRune("**")
	req.Error(err)
}

func TestConfig_Validate(t *testing.T) {
	req := require.New(t)

	req.Error(Config{StoreBackend: BackendBadger}.Validate())
	req.NoError(Config{StoreBackend: BackendBadger, BadgerFilepath: "/tmp/db"}.Validate())

	req.Error(Config{StoreBackend: BackendSheets}.Validate())
	req.NoError(Config{StoreBackend: BackendSheets, SpreadsheetID: "abc"}.Validate())

	req.Error(Config{StoreBackend: "mysql"}.Validate())
}

func TestConfig_Location(t *testing.T) {
	req := require.New(t)

	loc, err := Config{Timezone: "Asia/Taipei"}.Location()
	req.NoError(err)
	req.Equal("Asia/Taipei", loc.String())

	_, err = Config{Timezone: "Mars/Olympus"}.Location()
	req.Error(err)
}
