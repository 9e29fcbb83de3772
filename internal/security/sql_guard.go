// Package security holds the input guards applied before user-controlled
// text reaches the model or a database: a read-only SQL check and a question
// guard against prompt injection.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrEmptySQL      = errors.New("SQL cannot be empty")
	ErrNotReadOnly   = errors.New("only SELECT queries are allowed")
	ErrInjectionLike = errors.New("SQL injection pattern detected")
)

// injectionPatterns flag stacked statements and classic injection shapes.
// Generated queries are single SELECTs, so anything here is either a model
// gone wrong or a crafted request.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*(DROP|DELETE|INSERT|UPDATE|ALTER|CREATE|TRUNCATE|GRANT|REVOKE)\s`),
	regexp.MustCompile(`(?i);\s*EXEC(UTE)?\s*\(?`),
	regexp.MustCompile(`(?i)\bINTO\s+(OUTFILE|DUMPFILE)\b`),
	regexp.MustCompile(`(?i)\bLOAD\s+DATA\b`),
	regexp.MustCompile(`(?i)\bLOAD_FILE\s*\(`),
	regexp.MustCompile(`(?i)\b(BENCHMARK|SLEEP)\s*\(`),
	regexp.MustCompile(`(?i)\bWAITFOR\s+DELAY\b`),
	regexp.MustCompile(`'.*--`),
	regexp.MustCompile(`;\s*--`),
	regexp.MustCompile(`(?i)\b(or|and)\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\b(or|and)\s+'1'\s*=\s*'1'`),
}

// CheckReadOnly rejects anything that is not a single SELECT (or CTE)
// statement. It runs on every statement before execution, whether the SQL
// was model-generated or hand-written.
func CheckReadOnly(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return ErrEmptySQL
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return ErrNotReadOnly
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(sql) {
			return fmt.Errorf("%w: %s", ErrInjectionLike, pattern.String())
		}
	}
	return nil
}
