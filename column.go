package main

import (
	"fmt"
	"strings"
)

// columnDef is the outcome of parsing one column line: the column itself,
// the constraints declared inline on it, and anything degraded on the way.
// It is always a value; degradation is recorded, never raised.
type columnDef struct {
	Column      Column
	Constraints []Constraint
	Findings    []Finding
}

func (d *columnDef) report(kind FindingKind, format string, args ...any) {
	d.Findings = append(d.Findings, Finding{Kind: kind, Column: d.Column.Name, Detail: fmt.Sprintf(format, args...)})
}

// parseColumnDefinition parses "<name> <type>[(args)] <modifiers...>".
func parseColumnDefinition(line string, opts extractOptions) (columnDef, error) {
	rawName, i, ok := readIdent(line, 0)
	if !ok {
		return columnDef{}, fmt.Errorf("no column name")
	}

	i = skipSpace(line, i)
	j := i
	for j < len(line) && isIdentByte(line[j]) {
		j++
	}
	if j == i {
		return columnDef{}, fmt.Errorf("no column type")
	}
	rawType := strings.ToLower(line[i:j])
	if rawType == "double" {
		if r, ok := trimKeywords(line[j:], "PRECISION"); ok {
			j = len(line) - len(r)
		}
	}

	var args []string
	if k := skipSpace(line, j); k < len(line) && line[k] == '(' {
		inner, end, err := readParenGroup(line, k)
		if err != nil {
			return columnDef{}, err
		}
		args = splitTopLevel(inner, ',')
		j = end
	}

	def := columnDef{Column: Column{
		Name:       opts.ident(rawName),
		SourceName: rawName,
		SourceType: strings.TrimSpace(line[i:j]),
		Nullable:   true,
	}}
	col := &def.Column

	var (
		rawDefault *string
		autoInc    bool
		unsigned   bool
		extra      []string
	)

	toks := tokenize(line[j:])
	for k := 0; k < len(toks); k++ {
		tok := toks[k]
		upper := strings.ToUpper(tok)
		next := func() (string, bool) {
			if k+1 < len(toks) {
				k++
				return toks[k], true
			}
			return "", false
		}
		peekUpper := func(n int) string {
			if k+n < len(toks) {
				return strings.ToUpper(toks[k+n])
			}
			return ""
		}

		switch upper {
		case "UNSIGNED":
			unsigned = true
			def.Column.SourceType += " unsigned"
		case "SIGNED", "ZEROFILL", "VISIBLE", "INVISIBLE", "BINARY", "ASCII", "UNICODE":
		case "NOT":
			if peekUpper(1) == "NULL" {
				col.Nullable = false
				k++
			} else {
				extra = append(extra, tok)
			}
		case "NULL":
			col.Nullable = true
		case "DEFAULT":
			v, ok := next()
			if !ok {
				def.report(FindingDropped, "DEFAULT without a value ignored")
				continue
			}
			// CURRENT_TIMESTAMP(6), now()
			if k+1 < len(toks) && strings.HasPrefix(toks[k+1], "(") && !strings.HasPrefix(v, "'") && !strings.HasPrefix(v, "(") {
				k++
				v += toks[k]
			}
			rawDefault = &v
		case "AUTO_INCREMENT":
			autoInc = true
		case "ON":
			if peekUpper(1) != "UPDATE" {
				extra = append(extra, tok)
				continue
			}
			k++
			v, _ := next()
			if k+1 < len(toks) && strings.HasPrefix(toks[k+1], "(") {
				k++
				v += toks[k]
			}
			if isOnUpdateCurrentTimestamp(v) {
				col.OnUpdateCurrentTimestamp = true
				if !opts.ReplicateOnUpdate {
					def.report(FindingDropped, "ON UPDATE %s dropped; PostgreSQL needs a trigger for it", v)
				}
			} else {
				def.report(FindingDropped, "ON UPDATE %s dropped", v)
			}
		case "PRIMARY":
			if peekUpper(1) == "KEY" {
				k++
			}
			def.Constraints = append(def.Constraints, Constraint{Kind: PrimaryKey, Columns: []string{col.Name}, ColumnOrders: []string{"ASC"}})
		case "KEY":
			def.Constraints = append(def.Constraints, Constraint{Kind: PrimaryKey, Columns: []string{col.Name}, ColumnOrders: []string{"ASC"}})
		case "UNIQUE":
			if p := peekUpper(1); p == "KEY" || p == "INDEX" {
				k++
			}
			def.Constraints = append(def.Constraints, Constraint{Kind: Unique, Columns: []string{col.Name}, ColumnOrders: []string{"ASC"}, IndexType: "BTREE"})
		case "COMMENT":
			v, _ := next()
			if s, ok := unquoteMySQLString(v); ok {
				col.Comment = s
			}
		case "CHARACTER":
			if peekUpper(1) == "SET" {
				k++
				col.Charset, _ = next()
			}
		case "CHARSET":
			col.Charset, _ = next()
		case "COLLATE":
			col.Collation, _ = next()
		case "COLUMN_FORMAT", "STORAGE", "SRID", "ENGINE_ATTRIBUTE", "SECONDARY_ENGINE_ATTRIBUTE":
			next()
		case "FIRST":
			// ALTER TABLE column position; new columns are always appended.
		case "AFTER":
			next()
		case "REFERENCES":
			c, consumed, err := parseInlineReferences(toks[k:], opts)
			if err != nil {
				def.report(FindingDropped, "inline REFERENCES dropped: %v", err)
				k = len(toks)
				continue
			}
			c.Columns = []string{col.Name}
			def.Constraints = append(def.Constraints, c)
			k += consumed - 1
		case "CHECK":
			v, ok := next()
			if !ok || !strings.HasPrefix(v, "(") {
				def.report(FindingDropped, "malformed inline CHECK dropped")
				continue
			}
			def.Constraints = append(def.Constraints, Constraint{Kind: Check, Columns: []string{col.Name}, Expression: backticksToDoubleQuotes(strings.TrimSpace(v[1:len(v)-1]), opts.ident)})
			if p := peekUpper(1); p == "ENFORCED" {
				k++
			} else if p == "NOT" && peekUpper(2) == "ENFORCED" {
				k += 2
			}
		case "GENERATED":
			// GENERATED ALWAYS AS (expr)
			if peekUpper(1) == "ALWAYS" {
				k++
			}
			if peekUpper(1) == "AS" {
				k++
				v, _ := next()
				col.Generated = v
			}
		case "AS":
			v, _ := next()
			col.Generated = v
		case "STORED", "VIRTUAL", "PERSISTENT":
			if col.Generated != "" {
				col.Generated = strings.TrimSpace(col.Generated + " " + upper)
			} else {
				extra = append(extra, tok)
			}
		default:
			extra = append(extra, tok)
		}
	}

	pgType, note := mapType(rawType, args, unsigned, opts.TypeMap)
	col.PGType = pgType
	col.EnumValues = note.EnumValues
	if note.Unmapped {
		col.Unmapped = true
		def.report(FindingUnmappedType, "type %q has no PostgreSQL mapping; passed through unchanged", rawTypeLexeme(rawType, args))
	}

	if autoInc {
		if note.Serial != "" {
			col.AutoIncrement = true
			col.PGType = note.Serial
			if rawDefault != nil {
				def.report(FindingDropped, "DEFAULT %s dropped on auto-increment column", *rawDefault)
				rawDefault = nil
			}
		} else {
			def.report(FindingDropped, "AUTO_INCREMENT on non-integer type %q ignored", rawType)
		}
	}

	if rawDefault != nil {
		if expr, ok, reason := mapDefault(*rawDefault, note); ok {
			col.Default = &expr
		} else {
			def.report(FindingDropped, "%s", reason)
		}
	}

	if len(col.EnumValues) > 0 {
		def.Constraints = append(def.Constraints, Constraint{Kind: Check, Columns: []string{col.Name}, EnumValues: col.EnumValues})
	}

	if len(extra) > 0 {
		col.Unmapped = true
		col.Extra = strings.Join(extra, " ")
		def.report(FindingUnmappedType, "unrecognized modifiers %q passed through unchanged", col.Extra)
	}

	return def, nil
}

// parseInlineReferences parses a column-level REFERENCES clause from tokens
// and returns how many tokens it consumed.
func parseInlineReferences(toks []string, opts extractOptions) (Constraint, int, error) {
	// REFERENCES tbl (cols) [MATCH x] [ON DELETE a] [ON UPDATE a]
	n := 3
	upper := func(i int) string {
		if i < len(toks) {
			return strings.ToUpper(toks[i])
		}
		return ""
	}
	for n < len(toks) {
		switch {
		case upper(n) == "MATCH":
			n += 2
		case upper(n) == "ON" && (upper(n+1) == "DELETE" || upper(n+1) == "UPDATE"):
			n += 2
			if a := upper(n); a == "SET" || a == "NO" {
				n += 2
			} else {
				n++
			}
		default:
			return finishInlineReferences(toks, n, opts)
		}
	}
	return finishInlineReferences(toks, n, opts)
}

func finishInlineReferences(toks []string, n int, opts extractOptions) (Constraint, int, error) {
	n = min(n, len(toks))
	c, err := parseReferences(strings.Join(toks[:n], " "), opts)
	if err != nil {
		return Constraint{}, 0, err
	}
	return c, n, nil
}
