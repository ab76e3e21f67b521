package spdump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal/models/spcrm"
	"sitepulse/internal/models/sptrack"
)

func setupDumpDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&spcrm.Deal{}, &spcrm.Activity{}, &sptrack.DailyStat{})
	require.NoError(t, err)
	return db
}

func TestGenerateEmitsCreateForEmptyTables(t *testing.T) {
	db := setupDumpDB(t)
	g := New(db)
	g.tables = []string{"crm_deals"}

	sql, err := g.Generate()
	require.NoError(t, err)

	// No rows, the structure must still be there.
	assert.Contains(t, sql, "DROP TABLE IF EXISTS crm_deals CASCADE;")
	assert.Contains(t, sql, "CREATE TABLE crm_deals (")
	assert.Contains(t, sql, "-- Table crm_deals is empty")
	assert.NotContains(t, sql, "INSERT INTO crm_deals")
}

func TestGenerateInsertsAndEnums(t *testing.T) {
	db := setupDumpDB(t)
	require.NoError(t, db.Create(&spcrm.Deal{Title: "O'Brien's deal", Stage: spcrm.StageWon}).Error)

	g := New(db)
	g.tables = []string{"crm_deals"}

	sql, err := g.Generate()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO crm_deals")
	// Single quotes doubled, never backslash-escaped.
	assert.Contains(t, sql, "O''Brien''s deal")
	assert.NotContains(t, sql, `\'`)
	// The stage column uses the enum type.
	assert.Contains(t, sql, "stage deal_stage")
	assert.Contains(t, sql, "CREATE TYPE deal_stage AS ENUM")
}

func TestGenerateSkipsMissingTable(t *testing.T) {
	db := setupDumpDB(t)
	g := New(db)
	g.tables = []string{"no_such_table"}

	sql, err := g.Generate()
	require.NoError(t, err)
	assert.Contains(t, sql, "Table no_such_table does not exist")
}

func TestGenerateHeaderAndFooter(t *testing.T) {
	db := setupDumpDB(t)
	g := New(db)
	g.tables = []string{"daily_stats"}

	sql, err := g.Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "--\n-- SQL Database Full Dump\n"))
	assert.Contains(t, sql, "Row Level Security Policies")
	assert.True(t, strings.HasSuffix(sql, "-- End of dump\n"))
}

func TestEscapeSQL(t *testing.T) {
	assert.Equal(t, "NULL", escapeSQL(nil))
	assert.Equal(t, "TRUE", escapeSQL(true))
	assert.Equal(t, "FALSE", escapeSQL(false))
	assert.Equal(t, "42", escapeSQL(42))
	assert.Equal(t, "'it''s'", escapeSQL("it's"))
	assert.Equal(t, `'{"k":"v"}'`, escapeSQL(map[string]any{"k": "v"}))
}

func TestInferFromValues(t *testing.T) {
	rows := []map[string]any{
		{"count": int64(3), "ratio": 1.5, "active": true, "day": "2026-09-01", "seen": "2026-09-01T10:00:00Z", "note": "hello"},
	}
	assert.Equal(t, "INTEGER", inferFromValues("count", rows))
	assert.Equal(t, "NUMERIC", inferFromValues("ratio", rows))
	assert.Equal(t, "BOOLEAN", inferFromValues("active", rows))
	assert.Equal(t, "DATE", inferFromValues("day", rows))
	assert.Equal(t, "TIMESTAMP WITH TIME ZONE", inferFromValues("seen", rows))
	assert.Equal(t, "TEXT", inferFromValues("note", rows))
	assert.Equal(t, "INTEGER", inferFromValues("session_id", nil))
}

func TestDumpTablesOrder(t *testing.T) {
	// Translation tables must come after the table they reference.
	idx := func(name string) int {
		for i, table := range DumpTables {
			if table == name {
				return i
			}
		}
		return -1
	}
	assert.Less(t, idx("pages"), idx("page_translations"))
	assert.Less(t, idx("services"), idx("service_translations"))
	assert.Less(t, idx("crm_deals"), idx("crm_activities"))
}
