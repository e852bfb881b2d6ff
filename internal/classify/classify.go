// Package classify maps free-text LLM answers onto the closed label set.
//
// Only the first and last sentence of an answer are inspected. Each is matched
// against three ordered word groups (uncertainty, negation, affirmation) and
// the two sentence labels are then combined into one.
package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/litscreen/internal/model"
)

var whitespaceRun = regexp.MustCompile(`[\n\t]+| {2,}`)

// Word groups are matched against lower-cased sentences as whole words.
var (
	notSureWords = []string{"insufficient", "unclear", "inconclusive", "partial", "impossible", "indeterminate"}
	noWords      = []string{"no", "does not", "doesn't", "not"}
)

// CleanText collapses newline, tab and repeated-space runs into single
// spaces and removes quote characters
func CleanText(text string) string {
	cleaned := whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	cleaned = strings.ReplaceAll(cleaned, `"`, "")
	cleaned = strings.ReplaceAll(cleaned, "'", "")
	return strings.TrimSpace(cleaned)
}

// Classify maps a raw model answer to a label. It never fails: text that
// matches nothing comes back as LabelUndefined.
func Classify(raw string) model.Label {
	text := CleanText(raw)
	if strings.ToUpper(text) == model.ErrorAnswer {
		return model.LabelError
	}

	sentences := SplitSentences(text)
	first := sentenceLabel(strings.ToLower(sentences[0]))
	last := sentenceLabel(strings.ToLower(sentences[len(sentences)-1]))

	return resolve(first, last)
}

// resolve combines the first- and last-sentence labels. Branch order matters.
func resolve(first, last model.Label) model.Label {
	switch {
	case first == model.LabelNotSure || last == model.LabelNotSure:
		return model.LabelNotSure
	case first == model.LabelUndefined && isDecisive(last):
		return last
	case first == last:
		return first
	case isDecisive(first) && isDecisive(last):
		return model.LabelContradict
	default:
		return model.LabelUndefined
	}
}

func isDecisive(l model.Label) bool {
	return l == model.LabelYes || l == model.LabelNo
}

func sentenceLabel(sentence string) model.Label {
	switch {
	case containsAnyWord(sentence, notSureWords):
		return model.LabelNotSure
	case containsAnyWord(sentence, noWords):
		return model.LabelNo
	case len(wordIndexes(sentence, "yes")) > 0 || hasAffirmativeDoes(sentence):
		return model.LabelYes
	default:
		return model.LabelUndefined
	}
}

func containsAnyWord(s string, words []string) bool {
	for _, w := range words {
		if len(wordIndexes(s, w)) > 0 {
			return true
		}
	}
	return false
}

// wordIndexes returns the end offset of every occurrence of w in s that has
// no letter, digit or underscore on either side. Non-ASCII letters count as
// word characters.
func wordIndexes(s, w string) []int {
	var ends []int
	for i := 0; i+len(w) <= len(s); {
		j := strings.Index(s[i:], w)
		if j < 0 {
			break
		}
		start, end := i+j, i+j+len(w)
		if !wordBefore(s, start) && !wordAfter(s, end) {
			ends = append(ends, end)
		}
		i = start + 1
	}
	return ends
}

func wordBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

func wordAfter(s string, i int) bool {
	if i == len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// hasAffirmativeDoes reports whether "does" occurs as a word that is not
// immediately followed by " not"
func hasAffirmativeDoes(s string) bool {
	for _, end := range wordIndexes(s, "does") {
		if !strings.HasPrefix(s[end:], " not") {
			return true
		}
	}
	return false
}

// SplitSentences splits on ". " before an ASCII letter, on "? " and on "!".
// Abbreviations and decimals stay intact. Empty pieces are kept, so an answer
// ending in "!" has an empty last sentence.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.':
			if i+2 < len(text) && text[i+1] == ' ' && isASCIILetter(text[i+2]) {
				sentences = append(sentences, text[start:i])
				start = i + 2
				i++
			}
		case '?':
			if i+1 < len(text) && text[i+1] == ' ' {
				sentences = append(sentences, text[start:i])
				start = i + 2
				i++
			}
		case '!':
			sentences = append(sentences, text[start:i])
			start = i + 1
		}
	}
	return append(sentences, text[start:])
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
