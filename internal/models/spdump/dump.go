package spdump

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DumpTables is the fixed export order. Referenced tables come before the
// tables pointing at them so the dump restores cleanly.
var DumpTables = []string{
	"pages",
	"page_translations",
	"content_blocks",
	"content_block_translations",
	"services",
	"service_translations",
	"crm_companies",
	"crm_contacts",
	"crm_deals",
	"crm_tasks",
	"crm_activities",
	"contact_submissions",
	"email_settings",
	"daily_stats",
	"visitor_sessions",
	"ip_info",
	"page_views",
}

// Generator produces a restorable SQL dump of the whole database.
type Generator struct {
	db     *gorm.DB
	tables []string
}

func New(db *gorm.DB) *Generator {
	return &Generator{db: db, tables: DumpTables}
}

var (
	timestampRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}`)
	dateRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Generate walks the schema catalog table by table, emitting DROP/CREATE
// from the real column metadata and one INSERT per row. Tables with no rows
// still get their CREATE TABLE statement.
func (g *Generator) Generate() (string, error) {
	var b strings.Builder

	b.WriteString("--\n-- SQL Database Full Dump\n")
	b.WriteString("-- Project: sitepulse\n")
	fmt.Fprintf(&b, "-- Generated: %s\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString("-- This dump includes table structures and data\n--\n\n")

	b.WriteString("-- Custom Types\n")
	b.WriteString("DO $$ BEGIN\n")
	b.WriteString("  CREATE TYPE activity_type AS ENUM ('note', 'call', 'meeting', 'email');\n")
	b.WriteString("EXCEPTION WHEN duplicate_object THEN NULL; END $$;\n\n")
	b.WriteString("DO $$ BEGIN\n")
	b.WriteString("  CREATE TYPE deal_stage AS ENUM ('new', 'in_progress', 'negotiation', 'won', 'lost');\n")
	b.WriteString("EXCEPTION WHEN duplicate_object THEN NULL; END $$;\n\n")

	migrator := g.db.Migrator()

	for _, table := range g.tables {
		if !migrator.HasTable(table) {
			fmt.Fprintf(&b, "--\n-- Table: %s\n--\n-- Table %s does not exist, skipped\n\n", table, table)
			continue
		}

		fmt.Fprintf(&b, "--\n-- Table: %s\n--\n", table)

		columns, err := migrator.ColumnTypes(table)
		if err != nil {
			return "", fmt.Errorf("reading columns of %s: %w", table, err)
		}

		var rows []map[string]any
		if err := g.db.Table(table).Find(&rows).Error; err != nil {
			return "", fmt.Errorf("reading rows of %s: %w", table, err)
		}

		names := make([]string, 0, len(columns))
		fmt.Fprintf(&b, "DROP TABLE IF EXISTS %s CASCADE;\n", table)
		fmt.Fprintf(&b, "CREATE TABLE %s (\n", table)

		defs := make([]string, 0, len(columns))
		for _, col := range columns {
			name := col.Name()
			names = append(names, name)

			colType := g.columnSQLType(table, name, col, rows)
			def := fmt.Sprintf("  %s %s", name, colType)
			if pk, ok := col.PrimaryKey(); ok && pk {
				def += " PRIMARY KEY"
			} else if nullable, ok := col.Nullable(); ok && !nullable {
				def += " NOT NULL"
			}
			defs = append(defs, def)
		}
		b.WriteString(strings.Join(defs, ",\n"))
		b.WriteString("\n);\n\n")

		if len(rows) == 0 {
			fmt.Fprintf(&b, "-- Table %s is empty\n\n", table)
			continue
		}

		fmt.Fprintf(&b, "-- Data for table: %s (%d records)\n", table, len(rows))
		for _, row := range rows {
			values := make([]string, len(names))
			for i, name := range names {
				values[i] = escapeSQL(row[name])
			}
			fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s);\n",
				table, strings.Join(names, ", "), strings.Join(values, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("--\n-- Row Level Security Policies (for reference)\n--\n")
	b.WriteString("-- Note: access policies should be recreated manually based on your security requirements\n")
	b.WriteString("-- Example:\n")
	b.WriteString("-- ALTER TABLE table_name ENABLE ROW LEVEL SECURITY;\n")
	b.WriteString("-- CREATE POLICY \"policy_name\" ON table_name FOR SELECT USING (condition);\n\n")

	b.WriteString("-- Indexes are recreated by the application migrator on startup\n\n")
	b.WriteString("-- End of dump\n")

	return b.String(), nil
}

// columnSQLType maps the catalog type to portable SQL, with enum columns
// special-cased and a value-based fallback when the driver reports nothing
// useful.
func (g *Generator) columnSQLType(table, name string, col gorm.ColumnType, rows []map[string]any) string {
	if table == "crm_deals" && name == "stage" {
		return "deal_stage"
	}
	if name == "activity_type" {
		return "activity_type"
	}

	switch strings.ToUpper(col.DatabaseTypeName()) {
	case "INTEGER", "INT", "INT4", "BIGINT", "INT8", "TINYINT", "SMALLINT", "MEDIUMINT", "UNSIGNED BIG INT":
		return "INTEGER"
	case "REAL", "FLOAT", "DOUBLE", "NUMERIC", "DECIMAL":
		return "NUMERIC"
	case "BOOLEAN", "BOOL":
		return "BOOLEAN"
	case "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return "TIMESTAMP WITH TIME ZONE"
	case "DATE":
		return "DATE"
	case "TEXT", "VARCHAR", "CHAR", "CLOB":
		if length, ok := col.Length(); ok && length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", length)
		}
		return "TEXT"
	case "BLOB", "BYTEA":
		return "BYTEA"
	case "JSON", "JSONB":
		return "JSONB"
	}

	return inferFromValues(name, rows)
}

// inferFromValues guesses a column type from the first non-nil value, the
// way the predecessor dump did when the catalog gave no answer.
func inferFromValues(name string, rows []map[string]any) string {
	if name == "id" || strings.HasSuffix(name, "_id") {
		return "INTEGER"
	}

	for _, row := range rows {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case int, int32, int64, uint, uint32, uint64:
			return "INTEGER"
		case float32, float64:
			return "NUMERIC"
		case bool:
			return "BOOLEAN"
		case time.Time:
			return "TIMESTAMP WITH TIME ZONE"
		case string:
			if timestampRe.MatchString(val) {
				return "TIMESTAMP WITH TIME ZONE"
			}
			if dateRe.MatchString(val) {
				return "DATE"
			}
			return "TEXT"
		case map[string]any, []any:
			return "JSONB"
		}
		break
	}
	return "TEXT"
}

// escapeSQL renders one value as a SQL literal. Single quotes are doubled,
// never backslash-escaped.
func escapeSQL(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%v", val)
	case time.Time:
		return "'" + val.UTC().Format(time.RFC3339Nano) + "'"
	case []byte:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case map[string]any, []any:
		raw, err := json.Marshal(val)
		if err != nil {
			return "NULL"
		}
		return "'" + strings.ReplaceAll(string(raw), "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", val), "'", "''") + "'"
	}
}

// SortedTables returns the dump order, exposed for the admin UI listing.
func (g *Generator) SortedTables() []string {
	out := make([]string, len(g.tables))
	copy(out, g.tables)
	sort.Strings(out)
	return out
}
