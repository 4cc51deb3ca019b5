package scripture

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fkhayef/fellowship/pkg/apperror"
)

// Common errors
var (
	ErrInvalidReference = apperror.Validation("References look like \"John 3:16\"")
	ErrUnknownBook      = apperror.Validation("Unknown book")
	ErrChapterRange     = apperror.Validation("Chapter out of range")
)

// referencePattern splits "{book} {chapter}" with an optional ":{verse}".
// The book part may itself start with a digit, as in "1 Samuel".
var referencePattern = regexp.MustCompile(`^\s*(.+?)\s+(\d+)(?::(\d+))?\s*$`)

// Reference points at a verse, or a whole chapter when Verse is 0
type Reference struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse,omitempty"`
}

// Format renders the reference as "{book} {chapter}:{verse}", or "{book} {chapter}"
// for a whole chapter
func (r Reference) Format() string {
	if r.Verse == 0 {
		return fmt.Sprintf("%s %d", r.Book, r.Chapter)
	}
	return fmt.Sprintf("%s %d:%d", r.Book, r.Chapter, r.Verse)
}

func (r Reference) String() string {
	return r.Format()
}

// ParseReference parses a reference, resolving the book to its canonical name
func ParseReference(s string) (Reference, error) {
	match := referencePattern.FindStringSubmatch(s)
	if match == nil {
		return Reference{}, ErrInvalidReference
	}

	book, ok := LookupBook(match[1])
	if !ok {
		return Reference{}, ErrUnknownBook.WithDetails(strings.TrimSpace(match[1]))
	}

	chapter, err := strconv.Atoi(match[2])
	if err != nil || chapter < 1 || chapter > book.Chapters {
		return Reference{}, ErrChapterRange.WithDetails(fmt.Sprintf("%s has %d chapters", book.Name, book.Chapters))
	}

	ref := Reference{Book: book.Name, Chapter: chapter}
	if match[3] != "" {
		verse, err := strconv.Atoi(match[3])
		if err != nil || verse < 1 {
			return Reference{}, ErrInvalidReference
		}
		ref.Verse = verse
	}
	return ref, nil
}
