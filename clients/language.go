package clients

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// contrast keeps the detector from trivially answering with the only
// configured language.
var contrast = []lingua.Language{
	lingua.English, lingua.French, lingua.German, lingua.Spanish,
	lingua.Italian, lingua.Portuguese, lingua.Dutch, lingua.Arabic,
}

// Lingua detects the language of a text among the configured languages and
// a small contrast set. Ambiguous texts report no language. The detector
// is built on first use since loading its models is slow.
type Lingua struct {
	langs    []lingua.Language
	once     sync.Once
	detector lingua.LanguageDetector
}

// NewLingua accepts English language names such as "english"; unknown
// names are ignored.
func NewLingua(names ...string) *Lingua {
	seen := map[lingua.Language]bool{}
	var langs []lingua.Language
	add := func(l lingua.Language) {
		if !seen[l] {
			seen[l] = true
			langs = append(langs, l)
		}
	}
	for _, n := range names {
		for _, l := range lingua.AllLanguages() {
			if strings.EqualFold(l.String(), strings.TrimSpace(n)) {
				add(l)
			}
		}
	}
	for _, l := range contrast {
		add(l)
	}
	return &Lingua{langs: langs}
}

// Detect returns the English name of the language, e.g. "English".
func (l *Lingua) Detect(text string) (string, bool) {
	l.once.Do(func() {
		l.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(l.langs...).
			WithMinimumRelativeDistance(0.25).
			Build()
	})
	lang, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return lang.String(), true
}
