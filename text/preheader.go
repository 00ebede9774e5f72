package text

import (
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/language"
)

var englishSplitter = sync.OnceValue(func() *Splitter {
	return NewSplitter(language.English, nil)
})

const ellipsis = "…"

// Preheader builds short message summary from plain text: as many leading
// whole sentences as fit into limit runes. When even the first sentence is too
// long it is cut at a word boundary and ellipsis is appended.
func Preheader(plain string, limit int) string {
	plain = strings.Join(strings.Fields(plain), " ")
	if limit <= 0 || plain == "" {
		return ""
	}
	if utf8.RuneCountInString(plain) <= limit {
		return plain
	}

	var (
		b     strings.Builder
		count int
	)
	for sentence := range englishSplitter().Sentences(plain) {
		n := utf8.RuneCountInString(sentence)
		if count > 0 {
			n++
		}
		if count+n > limit {
			break
		}
		if count > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentence)
		count += n
	}
	if b.Len() > 0 {
		return b.String()
	}
	return truncateWords(plain, limit)
}

func truncateWords(s string, limit int) string {
	var (
		b     strings.Builder
		count int
	)
	// leave room for ellipsis
	limit--
	for word := range strings.FieldsSeq(s) {
		n := utf8.RuneCountInString(word)
		if count > 0 {
			n++
		}
		if count+n > limit {
			break
		}
		if count > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
		count += n
	}
	if b.Len() == 0 {
		// single enormous word
		runes := []rune(s)
		b.WriteString(string(runes[:max(limit, 0)]))
	}
	return b.String() + ellipsis
}
