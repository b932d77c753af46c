package main

import (
	"fmt"
	"sort"
	"strings"
)

// collectCollationFindings reports charset/collation information declared on
// columns. Case-insensitive collations (_ci suffix) become case-sensitive in
// PostgreSQL unless a collation_map entry overrides them.
func collectCollationFindings(tables []*Table, typeMap TypeMappingConfig) []Finding {
	charsets := make(map[string]bool)
	collations := make(map[string]bool)
	// _ci collation → count of columns using it
	ciCounts := make(map[string]int)
	// _ci collation → "table.column" refs covered by a unique key or PK
	ciUniqueRefs := make(map[string][]string)

	for _, t := range tables {
		uniqueCols := make(map[string]bool)
		for _, c := range t.Constraints {
			if c.Kind != PrimaryKey && c.Kind != Unique {
				continue
			}
			for _, col := range c.Columns {
				uniqueCols[col] = true
			}
		}

		for _, col := range t.Columns {
			if col.Charset != "" {
				charsets[col.Charset] = true
			}
			if col.Collation == "" {
				continue
			}
			collations[col.Collation] = true
			if !strings.HasSuffix(strings.ToLower(col.Collation), "_ci") {
				continue
			}
			ciCounts[col.Collation]++
			if _, mapped := typeMap.CollationMap[col.Collation]; uniqueCols[col.Name] && !mapped {
				ciUniqueRefs[col.Collation] = append(ciUniqueRefs[col.Collation], t.Name+"."+col.Name)
			}
		}
	}

	var findings []Finding
	add := func(format string, args ...any) {
		findings = append(findings, Finding{Kind: FindingCollation, Detail: fmt.Sprintf(format, args...)})
	}

	if len(charsets) > 0 {
		add("source charsets found: %s", strings.Join(sortedKeys(charsets), ", "))
	}
	if len(collations) > 0 {
		add("source collations found: %s", strings.Join(sortedKeys(collations), ", "))
	}
	for _, coll := range sortedKeys(ciCounts) {
		if _, mapped := typeMap.CollationMap[coll]; mapped {
			continue
		}
		add("%d column(s) use %s (case-insensitive); PostgreSQL text comparisons are case-sensitive by default", ciCounts[coll], coll)
	}
	for _, coll := range sortedKeys(ciUniqueRefs) {
		add("unique index/PK on %s column(s), uniqueness semantics may differ: %s", coll, strings.Join(ciUniqueRefs[coll], ", "))
	}
	return findings
}

// pgCollationClause returns a COLLATE clause for a column if collation_mode=auto.
// Returns "" when no clause should be added.
func pgCollationClause(col Column, typeMap TypeMappingConfig) string {
	if typeMap.CollationMode != "auto" || col.Collation == "" || !isTextLikePGType(col.PGType) {
		return ""
	}
	if mapped, ok := typeMap.CollationMap[col.Collation]; ok {
		return "COLLATE " + quoteIdent(mapped)
	}
	// _bin is byte-wise comparison
	if strings.HasSuffix(strings.ToLower(col.Collation), "_bin") {
		return `COLLATE "C"`
	}
	return ""
}

func isTextLikePGType(pgType string) bool {
	lower := strings.ToLower(pgType)
	return lower == "text" || strings.HasPrefix(lower, "varchar") || strings.HasPrefix(lower, "char")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
