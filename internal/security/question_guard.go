package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxQuestionLength bounds user questions before they are embedded in
// prompts.
const MaxQuestionLength = 2000

var ErrQuestionTooLong = errors.New("question too long")

// overridePatterns catch attempts to rewrite the model's instructions from
// inside the question. The generation prompt already fences the question off
// as untrusted data; this guard rejects the blatant cases up front.
var overridePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(ignore|disregard|forget|override)\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)(new|change)\s+context\s*:`),
	regexp.MustCompile(`(?i)instead\s+of\s+the\s+above`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+`),
	regexp.MustCompile(`(?i)system\s+prompt\s*:`),
}

// CheckQuestion validates a natural-language question before it enters a
// prompt.
func CheckQuestion(question string) error {
	if len(question) > MaxQuestionLength {
		return fmt.Errorf("%w: %d chars (max %d)", ErrQuestionTooLong, len(question), MaxQuestionLength)
	}
	if strings.TrimSpace(question) == "" {
		return errors.New("question cannot be empty")
	}
	for _, pattern := range overridePatterns {
		if pattern.MatchString(question) {
			return fmt.Errorf("instruction override pattern detected: %s", pattern.String())
		}
	}
	return nil
}
