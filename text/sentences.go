package text

import (
	"iter"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Splitter breaks text into sentences. Nil Splitter is valid and treats whole
// text as a single sentence.
type Splitter struct {
	*sentences.DefaultSentenceTokenizer
}

// NewSplitter returns sentence splitter for the language. Only English
// training data is available, for other languages sentence splitting is turned
// off and nil is returned.
func NewSplitter(lang language.Tag, log *zap.Logger) *Splitter {
	if log == nil {
		log = zap.NewNop()
	}
	base, confidence := lang.Base()
	if confidence == language.No {
		log.Warn("Unable to determine language base", zap.Stringer("tag", lang), zap.Stringer("base", base))
		return nil
	}
	if eng, _ := language.English.Base(); base != eng {
		log.Debug("No sentence tokenizer model, turning off sentence splitting", zap.Stringer("language", lang))
		return nil
	}
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		log.Warn("Unable to load sentences tokenizer data", zap.Stringer("tag", lang), zap.Error(err))
		return nil
	}
	return &Splitter{tokenizer}
}

// Sentences returns an iterator over sentences with surrounding white space
// removed.
func (s *Splitter) Sentences(in string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if s == nil {
			if t := strings.TrimSpace(in); t != "" {
				yield(t)
			}
			return
		}
		// tokenizer attaches trailing spaces of a sentence to the next one
		for _, sentence := range s.Tokenize(in) {
			t := strings.TrimFunc(sentence.Text, unicode.IsSpace)
			if t == "" {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Split returns slice of sentences.
func (s *Splitter) Split(in string) []string {
	var result []string
	for sentence := range s.Sentences(in) {
		result = append(result, sentence)
	}
	return result
}
