package voice

import (
	"regexp"
	"strings"
)

var (
	paragraphBreak = regexp.MustCompile(`\n{2,}`)
	spaceRun       = regexp.MustCompile(`[ \t]{2,}`)
	emphasisChars  = strings.NewReplacer("*", "", "_", "", "#", "")
)

// ForSpeech normalizes generated text so a TTS engine reads it naturally:
// paragraph breaks become sentence punctuation, single line breaks become
// commas and markdown emphasis characters are stripped.
func ForSpeech(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = emphasisChars.Replace(text)

	paragraphs := paragraphBreak.Split(text, -1)
	flattened := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = flattenLines(p)
		if p == "" {
			continue
		}
		if !endsWithSentencePunct(p) {
			p += "."
		}
		flattened = append(flattened, p)
	}

	out := strings.Join(flattened, " ")
	out = spaceRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// flattenLines turns remaining single line breaks into comma pauses.
func flattenLines(paragraph string) string {
	lines := strings.Split(paragraph, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts = append(parts, line)
	}

	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			if endsWithSentencePunct(parts[i-1]) || strings.HasSuffix(parts[i-1], ",") {
				b.WriteString(" ")
			} else {
				b.WriteString(", ")
			}
		}
		b.WriteString(part)
	}
	return b.String()
}

func endsWithSentencePunct(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") ||
		strings.HasSuffix(s, "?") || strings.HasSuffix(s, ":")
}
