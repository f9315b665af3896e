// Package phrase isolates the spoken reply from a coaching suggestion.
//
// Coaching output mixes an English translation with a suggested Portuguese
// reply. Only the reply should ever reach the speech synthesizer, so the
// extractor looks for a labelled, quoted phrase and then checks that the phrase
// actually looks Portuguese before handing it back.
package phrase

import (
	"regexp"
	"strings"
	"unicode"
)

// labelPatterns are tried in order; the first one that matches decides the
// outcome.
var labelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsay:\s*["“]([^"”\n]+)["”]`),
	regexp.MustCompile(`(?i)\bask:\s*["“]([^"”\n]+)["”]`),
	regexp.MustCompile(`(?i)\btry:\s*["“]([^"”\n]+)["”]`),
}

const diacritics = "áàâãéêíóôõúüçÁÀÂÃÉÊÍÓÔÕÚÜÇ"

// stopwords are common Portuguese function words that are not also English
// words, fillers or abbreviations ("um", "com", "eu", "sim", "da" are left out).
var stopwords = map[string]struct{}{
	"que": {}, "você": {}, "voce": {}, "não": {}, "nao": {}, "pra": {},
	"para": {}, "uma": {}, "isso": {}, "como": {}, "muito": {}, "muita": {},
	"tudo": {}, "bem": {}, "está": {}, "esta": {}, "estou": {}, "tem": {},
	"sua": {}, "seu": {}, "dela": {}, "dele": {}, "ele": {}, "ela": {},
	"das": {}, "te": {}, "mais": {}, "foi": {}, "gente": {}, "quando": {},
	"onde": {}, "porque": {}, "também": {}, "tambem": {}, "né": {}, "vai": {},
	"então": {}, "entao": {},
}

// Extract returns the target-language phrase labelled in suggestion, if any.
func Extract(suggestion string) (string, bool) {
	for _, pattern := range labelPatterns {
		m := pattern.FindStringSubmatch(suggestion)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if candidate == "" || !LooksPortuguese(candidate) {
			return "", false
		}
		return candidate, true
	}
	return "", false
}

// LooksPortuguese reports whether text carries either a Portuguese diacritic
// or at least one Portuguese function word.
func LooksPortuguese(text string) bool {
	if strings.ContainsAny(text, diacritics) {
		return true
	}
	for _, token := range tokenize(text) {
		if _, ok := stopwords[token]; ok {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
