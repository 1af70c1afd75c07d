package delivery

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Format applies the post-processing the options request, in order:
// trim, punctuation, bullet reflow.
func Format(text string, opts Options) string {
	out := strings.TrimSpace(text)
	if opts.Punctuate {
		out = Punctuate(out)
	}
	if opts.Bullets {
		out = Bulletize(out)
	}
	return out
}

// Punctuate capitalizes the first letter and closes the text with a
// period when it does not already end in terminal punctuation.
func Punctuate(text string) string {
	if text == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(text)
	out := string(unicode.ToUpper(first)) + text[size:]

	switch last, _ := utf8.DecodeLastRuneInString(out); last {
	case '.', '!', '?', '…', ':', ';':
	default:
		out += "."
	}
	return out
}

// Bulletize reflows multi-sentence text into a dashed list, one bullet
// per sentence. Text with at most one sentence passes through
// unchanged.
func Bulletize(text string) string {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return text
	}
	var b strings.Builder
	for i, s := range sentences {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(s)
	}
	return b.String()
}

func terminal(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

// splitSentences cuts after runs of terminal punctuation followed by
// whitespace, so "?!" and "..." cut once and decimals like "3.5" never
// cut at all.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !terminal(text[i]) {
			continue
		}
		j := i + 1
		for j < len(text) && terminal(text[j]) {
			j++
		}
		if j < len(text) && !unicode.IsSpace(rune(text[j])) {
			i = j - 1
			continue
		}
		if s := strings.TrimSpace(text[start:j]); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}
