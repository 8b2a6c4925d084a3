// Package sanitize cleans free text before it is persisted.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultMaxLength   = 500
	MaxReasonLength    = 400
	MaxVisaTypeLength  = 120
	MaxReviewLength    = 600
	RemovedPlaceholder = "[removed]"
)

var (
	ctrlWithNewlines = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	ctrlAll          = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	scriptOpen       = regexp.MustCompile(`(?i)<\s*script`)
	scriptBlock      = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	windowsNewline   = regexp.MustCompile(`\r\n?`)
	manyNewlines     = regexp.MustCompile(`\n{3,}`)
	innerSpaces      = regexp.MustCompile(`[ \t]{2,}`)
	anyWhitespace    = regexp.MustCompile(`\s+`)
	emailPattern     = regexp.MustCompile(`(?i)^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)
)

type Options struct {
	MaxLength     int
	AllowNewlines bool
}

// Text normalizes value and returns nil when nothing meaningful is left.
func Text(value *string, opts Options) *string {
	if value == nil {
		return nil
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}

	v := norm.NFC.String(*value)
	v = strings.ReplaceAll(v, "\x00", "")
	if opts.AllowNewlines {
		v = ctrlWithNewlines.ReplaceAllString(v, "")
	} else {
		v = ctrlAll.ReplaceAllString(v, "")
	}

	v = scriptOpen.ReplaceAllString(v, "<script")
	v = scriptBlock.ReplaceAllString(v, RemovedPlaceholder)

	if opts.AllowNewlines {
		v = windowsNewline.ReplaceAllString(v, "\n")
		v = manyNewlines.ReplaceAllString(v, "\n\n")
		lines := strings.Split(v, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(innerSpaces.ReplaceAllString(line, " "))
		}
		v = strings.Join(lines, "\n")
	} else {
		v = anyWhitespace.ReplaceAllString(v, " ")
	}

	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}

	if runes := []rune(v); len(runes) > opts.MaxLength {
		v = string(runes[:opts.MaxLength])
	}
	return &v
}

func Reason(value *string) *string {
	return Text(value, Options{MaxLength: MaxReasonLength, AllowNewlines: true})
}

func VisaType(value *string) *string {
	return Text(value, Options{MaxLength: MaxVisaTypeLength, AllowNewlines: false})
}

func ReviewFeedback(value *string) *string {
	return Text(value, Options{MaxLength: MaxReviewLength, AllowNewlines: true})
}

// Email lower-cases and trims the address. The second return is false for
// anything that does not look like an address.
func Email(value string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(value))
	if !emailPattern.MatchString(email) {
		return "", false
	}
	return email, true
}
