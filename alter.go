package main

import (
	"fmt"
	"slices"
	"strings"
)

type alterOpKind int

const (
	alterAddConstraint alterOpKind = iota
	alterAddColumn
	alterModifyColumn
	alterChangeColumn
)

func (k alterOpKind) String() string {
	switch k {
	case alterAddConstraint:
		return "ADD CONSTRAINT"
	case alterAddColumn:
		return "ADD COLUMN"
	case alterModifyColumn:
		return "MODIFY COLUMN"
	case alterChangeColumn:
		return "CHANGE COLUMN"
	default:
		return "unknown"
	}
}

type alterOp struct {
	Kind       alterOpKind
	Constraint Constraint // alterAddConstraint
	Column     columnDef  // column ops
	OldName    string     // alterChangeColumn
}

// alterTable is a parsed ALTER TABLE statement, held until the document is
// finalized so it can target tables from any input file.
type alterTable struct {
	Table  string
	Source string
	Ops    []alterOp
}

// parseAlterTable parses the ALTER TABLE clauses phpMyAdmin-style dumps use
// to attach keys after the CREATE TABLE statements. Unsupported clauses are
// reported and skipped.
func parseAlterTable(stmt string, opts extractOptions) (*alterTable, []Finding, error) {
	loc := alterTableHeader.FindStringIndex(stmt)
	if loc == nil {
		return nil, nil, fmt.Errorf("missing ALTER TABLE header in %q", truncate(stmt, 60))
	}
	rawName, i, ok := readQualifiedIdent(stmt, loc[1])
	if !ok {
		return nil, nil, fmt.Errorf("cannot read table name in %q", truncate(stmt, 60))
	}

	at := &alterTable{Table: opts.ident(rawName), Source: opts.Source}
	var findings []Finding
	report := func(kind FindingKind, column, format string, args ...any) {
		findings = append(findings, Finding{
			Source: opts.Source,
			Table:  at.Table,
			Column: column,
			Kind:   kind,
			Detail: fmt.Sprintf(format, args...),
		})
	}

	addColumn := func(kind alterOpKind, oldName, def string) {
		cd, err := parseColumnDefinition(def, opts)
		if err != nil {
			report(FindingAlter, "", "%s %q skipped: %v", kind, truncate(def, 60), err)
			return
		}
		for _, f := range cd.Findings {
			report(f.Kind, cd.Column.Name, "%s", f.Detail)
		}
		at.Ops = append(at.Ops, alterOp{Kind: kind, Column: cd, OldName: oldName})
	}

	for _, clause := range splitTopLevel(stmt[i:], ',') {
		if rest, ok := trimKeywords(clause, "ADD"); ok {
			if kind := classifyLine(rest); kind != lineColumn && kind != lineUnclassified {
				c, err := parseConstraintLine(kind, rest, opts)
				if err != nil {
					report(FindingAlter, "", "skipped ADD %s %q: %v", kind, truncate(rest, 60), err)
					continue
				}
				f, ok := admitKeyConstraint(c, kind)
				if f.Detail != "" {
					report(f.Kind, "", "%s", f.Detail)
				}
				if !ok {
					continue
				}
				at.Ops = append(at.Ops, alterOp{Kind: alterAddConstraint, Constraint: c})
				continue
			}
			rest, _ = trimKeywords(rest, "COLUMN")
			if strings.HasPrefix(rest, "(") {
				inner, _, err := readParenGroup(rest, 0)
				if err != nil {
					report(FindingAlter, "", "skipped ADD COLUMN %q: %v", truncate(rest, 60), err)
					continue
				}
				for _, def := range splitTopLevel(inner, ',') {
					addColumn(alterAddColumn, "", def)
				}
				continue
			}
			addColumn(alterAddColumn, "", rest)
			continue
		}
		if rest, ok := trimKeywords(clause, "MODIFY"); ok {
			rest, _ = trimKeywords(rest, "COLUMN")
			addColumn(alterModifyColumn, "", rest)
			continue
		}
		if rest, ok := trimKeywords(clause, "CHANGE"); ok {
			rest, _ = trimKeywords(rest, "COLUMN")
			old, j, ok := readIdent(rest, 0)
			if !ok {
				report(FindingAlter, "", "skipped CHANGE %q: no column name", truncate(rest, 60))
				continue
			}
			addColumn(alterChangeColumn, opts.ident(old), rest[j:])
			continue
		}
		report(FindingAlter, "", "unsupported ALTER TABLE clause %q skipped", truncate(clause, 60))
	}
	return at, findings, nil
}

// admitKeyConstraint applies the index compatibility rules shared by
// CREATE TABLE bodies and ALTER TABLE ADD clauses. It returns false when the
// constraint must be skipped; a non-empty finding is worth reporting either way.
func admitKeyConstraint(c Constraint, kind lineKind) (Finding, bool) {
	if !isKeyConstraint(c.Kind) {
		return Finding{}, true
	}
	reason, unsupported := indexUnsupportedReason(c)
	if !unsupported {
		return Finding{}, true
	}
	plain := c
	plain.HasPrefix = false
	if _, other := indexUnsupportedReason(plain); !other {
		return Finding{Kind: FindingIndex, Detail: fmt.Sprintf("%s %s: prefix lengths dropped, index now covers full column values", kind, displayName(c))}, true
	}
	return Finding{Kind: FindingIndex, Detail: fmt.Sprintf("%s %s skipped: %s", kind, displayName(c), reason)}, false
}

// apply merges the ALTER TABLE operations into t, returning findings for
// operations that could not be applied. Column renames are also carried into
// foreign keys of the other tables that reference t.
func (at *alterTable) apply(t *Table, tables []*Table) []Finding {
	var findings []Finding
	report := func(column, format string, args ...any) {
		findings = append(findings, Finding{
			Source: at.Source,
			Table:  t.Name,
			Column: column,
			Kind:   FindingAlter,
			Detail: fmt.Sprintf(format, args...),
		})
	}

	for _, op := range at.Ops {
		switch op.Kind {
		case alterAddConstraint:
			if op.Constraint.Kind == PrimaryKey && t.PrimaryKey() != nil {
				report("", "second primary key %s ignored", displayName(op.Constraint))
				continue
			}
			t.Constraints = append(t.Constraints, op.Constraint)
		case alterAddColumn:
			if t.column(op.Column.Column.Name) >= 0 {
				report(op.Column.Column.Name, "ADD COLUMN of existing column ignored")
				continue
			}
			t.Columns = append(t.Columns, op.Column.Column)
			t.Constraints = append(t.Constraints, op.Column.Constraints...)
		case alterModifyColumn, alterChangeColumn:
			old := op.OldName
			if op.Kind == alterModifyColumn {
				old = op.Column.Column.Name
			}
			idx := t.column(old)
			if idx < 0 {
				report(old, "%s of unknown column ignored", op.Kind)
				continue
			}
			newName := op.Column.Column.Name
			if newName != old && t.column(newName) >= 0 {
				report(old, "%s to existing column %q ignored", op.Kind, newName)
				continue
			}
			t.Columns[idx] = op.Column.Column
			t.Constraints = slices.DeleteFunc(t.Constraints, func(c Constraint) bool {
				return c.Kind == Check && len(c.EnumValues) > 0 && slices.Equal(c.Columns, []string{old})
			})
			if newName != old {
				for _, c := range renameColumnRefs(t, old, newName) {
					report(old, "CHECK %s still refers to %q after the rename; review it", displayName(c), old)
				}
				renameReferencingForeignKeys(tables, t, old, newName)
			}
			t.Constraints = append(t.Constraints, op.Column.Constraints...)
		}
	}
	return findings
}

// renameColumnRefs rewrites constraint column lists and CHECK expressions of
// t after a CHANGE COLUMN rename, including self-referencing foreign keys. It
// returns the checks that still name the old column unquoted.
func renameColumnRefs(t *Table, old, renamed string) []Constraint {
	var unresolved []Constraint
	for i := range t.Constraints {
		c := &t.Constraints[i]
		for j, col := range c.Columns {
			if col == old {
				c.Columns[j] = renamed
			}
		}
		if c.Kind == ForeignKey && c.RefTable == t.Name {
			for j, col := range c.RefColumns {
				if col == old {
					c.RefColumns[j] = renamed
				}
			}
		}
		if c.Kind == Check && c.Expression != "" {
			var bare bool
			c.Expression, bare = renameInExpression(c.Expression, old, renamed)
			if bare {
				unresolved = append(unresolved, *c)
			}
		}
	}
	return unresolved
}

func renameReferencingForeignKeys(tables []*Table, target *Table, old, renamed string) {
	for _, o := range tables {
		if o == target {
			continue
		}
		for i := range o.Constraints {
			c := &o.Constraints[i]
			if c.Kind != ForeignKey || c.RefTable != target.Name {
				continue
			}
			for j, col := range c.RefColumns {
				if col == old {
					c.RefColumns[j] = renamed
				}
			}
		}
	}
}

// renameInExpression rewrites double-quoted references to old. Bare
// identifiers are left alone since they may be function names; the second
// result reports whether one matched old.
func renameInExpression(expr, old, renamed string) (string, bool) {
	var b strings.Builder
	bare := false
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == '\'':
			j := skipQuoted(expr, i)
			b.WriteString(expr[i:j])
			i = j
		case c == '"':
			j := skipQuoted(expr, i)
			if expr[i:j] == quoteIdent(old) {
				b.WriteString(quoteIdent(renamed))
			} else {
				b.WriteString(expr[i:j])
			}
			i = j
		case isIdentByte(c):
			j := i
			for j < len(expr) && isIdentByte(expr[j]) {
				j++
			}
			if strings.EqualFold(expr[i:j], old) {
				bare = true
			}
			b.WriteString(expr[i:j])
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), bare
}
