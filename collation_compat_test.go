package main

import (
	"strings"
	"testing"
)

func collationDetails(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.Detail
	}
	return out
}

func TestCollectCollationFindings_Empty(t *testing.T) {
	findings := collectCollationFindings(nil, defaultTypeMappingConfig())
	if len(findings) != 0 {
		t.Errorf("expected 0 findings for no tables, got %d: %v", len(findings), findings)
	}
}

func TestCollectCollationFindings_CI(t *testing.T) {
	tables := []*Table{{
		Name: "users",
		Columns: []Column{
			{Name: "name", Charset: "utf8mb4", Collation: "utf8mb4_general_ci"},
			{Name: "email", Charset: "utf8mb4", Collation: "utf8mb4_general_ci"},
			{Name: "id"},
		},
	}}

	details := collationDetails(collectCollationFindings(tables, defaultTypeMappingConfig()))
	if len(details) != 3 {
		t.Fatalf("findings = %v, want charset, collation and _ci summaries", details)
	}
	if details[0] != "source charsets found: utf8mb4" {
		t.Errorf("charset summary = %q", details[0])
	}
	if details[1] != "source collations found: utf8mb4_general_ci" {
		t.Errorf("collation summary = %q", details[1])
	}
	if !strings.HasPrefix(details[2], "2 column(s) use utf8mb4_general_ci (case-insensitive)") {
		t.Errorf("_ci finding = %q", details[2])
	}
}

func TestCollectCollationFindings_CIDeduplicated(t *testing.T) {
	tables := []*Table{
		{Name: "t1", Columns: []Column{{Name: "a", Collation: "utf8mb4_general_ci"}}},
		{Name: "t2", Columns: []Column{{Name: "b", Collation: "utf8mb4_general_ci"}}},
	}

	ciCount := 0
	for _, d := range collationDetails(collectCollationFindings(tables, defaultTypeMappingConfig())) {
		if strings.Contains(d, "case-insensitive") {
			ciCount++
		}
	}
	if ciCount != 1 {
		t.Errorf("expected 1 deduplicated CI finding, got %d", ciCount)
	}
}

func TestCollectCollationFindings_MappedCISuppressed(t *testing.T) {
	tables := []*Table{{
		Name:        "users",
		Columns:     []Column{{Name: "email", Collation: "utf8mb4_general_ci"}},
		Constraints: []Constraint{{Kind: Unique, Columns: []string{"email"}}},
	}}
	tm := defaultTypeMappingConfig()
	tm.CollationMap = map[string]string{"utf8mb4_general_ci": "und-x-icu"}

	for _, d := range collationDetails(collectCollationFindings(tables, tm)) {
		if strings.Contains(d, "case-insensitive") || strings.Contains(d, "unique index/PK") {
			t.Errorf("expected CI findings to be suppressed when mapped, got: %s", d)
		}
	}
}

func TestCollectCollationFindings_UniqueAndPrimaryKey(t *testing.T) {
	tables := []*Table{
		{
			Name:        "users",
			Columns:     []Column{{Name: "email", Collation: "utf8mb4_unicode_ci"}},
			Constraints: []Constraint{{Kind: Unique, Name: "idx_email", Columns: []string{"email"}}},
		},
		{
			Name:        "tags",
			Columns:     []Column{{Name: "slug", Collation: "utf8mb4_unicode_ci"}},
			Constraints: []Constraint{{Kind: PrimaryKey, Columns: []string{"slug"}}},
		},
		{
			Name:        "notes",
			Columns:     []Column{{Name: "body", Collation: "utf8mb4_unicode_ci"}},
			Constraints: []Constraint{{Kind: Index, Columns: []string{"body"}}},
		},
	}

	details := collationDetails(collectCollationFindings(tables, defaultTypeMappingConfig()))
	last := details[len(details)-1]
	if last != "unique index/PK on utf8mb4_unicode_ci column(s), uniqueness semantics may differ: users.email, tags.slug" {
		t.Errorf("unique finding = %q", last)
	}
}

func TestCollationFromColumnDefinition(t *testing.T) {
	stmt := "CREATE TABLE `users` (`email` varchar(100) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL)"
	tbl, _, err := extractTable(stmt, testExtractOptions())
	if err != nil {
		t.Fatalf("extractTable() error: %v", err)
	}
	col := tbl.Columns[0]
	if col.Charset != "utf8mb4" || col.Collation != "utf8mb4_bin" || col.Nullable {
		t.Fatalf("column = %+v", col)
	}

	tm := defaultTypeMappingConfig()
	tm.CollationMode = "auto"
	if got, want := columnDefinition(col, tm), `"email" VARCHAR(100) COLLATE "C" NOT NULL`; got != want {
		t.Fatalf("columnDefinition() = %q, want %q", got, want)
	}
}

func TestPgCollationClause(t *testing.T) {
	auto := defaultTypeMappingConfig()
	auto.CollationMode = "auto"
	mapped := auto
	mapped.CollationMap = map[string]string{"utf8mb4_general_ci": "und-x-icu"}

	tests := []struct {
		name string
		col  Column
		tm   TypeMappingConfig
		want string
	}{
		{"mode none", Column{PGType: "TEXT", Collation: "utf8mb4_bin"}, defaultTypeMappingConfig(), ""},
		{"auto bin", Column{PGType: "TEXT", Collation: "utf8mb4_bin"}, auto, `COLLATE "C"`},
		{"auto ci without map", Column{PGType: "TEXT", Collation: "utf8mb4_general_ci"}, auto, ""},
		{"auto mapped", Column{PGType: "VARCHAR(20)", Collation: "utf8mb4_general_ci"}, mapped, `COLLATE "und-x-icu"`},
		{"empty collation", Column{PGType: "TEXT"}, auto, ""},
		{"non-text type", Column{PGType: "INTEGER", Collation: "utf8mb4_bin"}, auto, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pgCollationClause(tt.col, tt.tm); got != tt.want {
				t.Errorf("pgCollationClause() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsTextLikePGType(t *testing.T) {
	tests := []struct {
		pgType string
		want   bool
	}{
		{"TEXT", true},
		{"VARCHAR(255)", true},
		{"CHAR(1)", true},
		{"INTEGER", false},
		{"BYTEA", false},
		{"BOOLEAN", false},
		{"JSONB", false},
		{"NUMERIC(10,2)", false},
		{"text[]", false},
	}
	for _, tt := range tests {
		t.Run(tt.pgType, func(t *testing.T) {
			if got := isTextLikePGType(tt.pgType); got != tt.want {
				t.Errorf("isTextLikePGType(%q) = %v, want %v", tt.pgType, got, tt.want)
			}
		})
	}
}
