package sqliteutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAppliesSchema(t *testing.T) {
	db, err := OpenDB(
		"CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT NOT NULL);",
		":memory:",
	)
	require.Nil(t, err)
	defer db.Close()

	_, err = db.Exec("INSERT INTO kv (k, v) VALUES ('a', 'b')")
	require.Nil(t, err)

	var v string
	err = db.QueryRow("SELECT v FROM kv WHERE k = 'a'").Scan(&v)
	require.Nil(t, err)
	require.Equal(t, "b", v)
}

func TestOpenSchemaIsIdempotent(t *testing.T) {
	schema := "CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY);"
	db, err := OpenDB(schema, ":memory:")
	require.Nil(t, err)
	defer db.Close()

	// reapplying must not fail, every open does this
	_, err = db.Exec(schema)
	require.Nil(t, err)
}

func TestIsRemote(t *testing.T) {
	require.True(t, isRemote("libsql://closeness-prod.turso.io"))
	require.True(t, isRemote("https://closeness-prod.turso.io"))
	require.False(t, isRemote("data/closeness.db"))
	require.False(t, isRemote(":memory:"))
}
