package main

import (
	"regexp"
	"strings"
)

var (
	noiseStatementPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[ \t]*SET\s+[^;]*;[ \t]*`),
		regexp.MustCompile(`(?im)^[ \t]*START\s+TRANSACTION\s*;[ \t]*`),
		regexp.MustCompile(`(?im)^[ \t]*COMMIT\s*;[ \t]*`),
		regexp.MustCompile(`(?is)(?:^|\n)[ \t]*LOCK\s+TABLES\b[^;]*;[ \t]*`),
		regexp.MustCompile(`(?im)^[ \t]*UNLOCK\s+TABLES\s*;[ \t]*`),
	}

	// Table options trailing a CREATE TABLE (...) block. Column-level
	// COLLATE/CHARACTER SET have no '=' and are left for the extractor.
	tableOptionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bENGINE\s*=\s*\w+`),
		regexp.MustCompile(`(?i)\bAUTO_INCREMENT\s*=\s*\d+`),
		regexp.MustCompile(`(?i)\bDEFAULT\s+(?:CHARSET|CHARACTER\s+SET)\s*=\s*\w+`),
		regexp.MustCompile(`(?i)\b(?:CHARSET|CHARACTER\s+SET)\s*=\s*\w+`),
		regexp.MustCompile(`(?i)\b(?:DEFAULT\s+)?COLLATE\s*=\s*[\w-]+`),
		regexp.MustCompile(`(?i)\bROW_FORMAT\s*=\s*\w+`),
	}
	// COMMENT= whose literal follows; the literal itself is skipped by the caller.
	tableCommentOption = regexp.MustCompile(`(?i)\bCOMMENT\s*=\s*$`)

	trailingSpace = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// cleanMySQLNoise strips MySQL-only noise from one input file: comments,
// SET/transaction/lock statements and CREATE TABLE table options. It never
// fails; anything it does not recognize is passed through unchanged.
func cleanMySQLNoise(sql string) string {
	sql = strings.ReplaceAll(sql, "\r\n", "\n")
	sql = stripComments(sql)
	for _, re := range noiseStatementPatterns {
		sql = re.ReplaceAllString(sql, "\n")
	}
	sql = stripTableOptions(sql)
	sql = trailingSpace.ReplaceAllString(sql, "")
	sql = blankRuns.ReplaceAllString(sql, "\n\n")
	return strings.TrimSpace(sql) + "\n"
}

// stripComments removes /* */ (including /*! versioned */), -- and # comments
// that appear outside quoted literals and identifiers.
func stripComments(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))
	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			j := skipQuoted(sql, i)
			b.WriteString(sql[i:j])
			i = j
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 4
			b.WriteByte(' ')
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-', c == '#':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				return b.String()
			}
			i += end
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// stripTableOptions removes table options from the text between quoted runs,
// so option-looking text inside DEFAULT or COMMENT literals survives.
func stripTableOptions(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))
	for i := 0; i < len(sql); {
		j := i
		for j < len(sql) && sql[j] != '\'' && sql[j] != '"' && sql[j] != '`' {
			j++
		}
		run := sql[i:j]
		for _, re := range tableOptionPatterns {
			run = re.ReplaceAllString(run, "")
		}
		if j < len(sql) && sql[j] == '\'' {
			if loc := tableCommentOption.FindStringIndex(run); loc != nil {
				b.WriteString(run[:loc[0]])
				i = skipQuoted(sql, j)
				continue
			}
		}
		b.WriteString(run)
		if j < len(sql) {
			end := skipQuoted(sql, j)
			b.WriteString(sql[j:end])
			j = end
		}
		i = j
	}
	return b.String()
}
