package validation

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"unicode"

	"github.com/rs/zerolog"
)

// DefaultPattern accepts identifiers made of ASCII letters, digits and '_'.
var DefaultPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var ErrUnsanitized = errors.New("unsanitized input")

// UnsanitizedError reports the first input that failed the pattern.
type UnsanitizedError struct {
	Input   string
	Invalid []string
}

func (e *UnsanitizedError) Error() string {
	return fmt.Sprintf("unsanitized input! invalid characters %q found in input: %q", e.Invalid, e.Input)
}

func (e *UnsanitizedError) Unwrap() error { return ErrUnsanitized }

// VerifySanitized checks every input against DefaultPattern.
func VerifySanitized(inputs ...string) error {
	return verify(DefaultPattern, inputs)
}

// VerifySanitizedWith checks inputs against an override pattern. An empty
// pattern means DefaultPattern.
func VerifySanitizedWith(log zerolog.Logger, pattern string, inputs ...string) error {
	if pattern == "" {
		return verify(DefaultPattern, inputs)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	log.Warn().Str("pattern", pattern).Msg("overriding default sanitization pattern")

	return verify(re, inputs)
}

func verify(re *regexp.Regexp, inputs []string) error {
	for _, s := range inputs {
		if !re.MatchString(s) {
			return &UnsanitizedError{Input: s, Invalid: invalidChars(s)}
		}
	}
	return nil
}

// invalidChars lists the distinct characters outside [letters digits _],
// sorted.
func invalidChars(s string) []string {
	seen := map[rune]struct{}{}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			continue
		}
		seen[r] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, string(r))
	}
	slices.Sort(out)
	return out
}
