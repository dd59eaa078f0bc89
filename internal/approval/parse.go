package approval

import (
	"regexp"
	"strings"
)

var (
	allDigitsPattern = regexp.MustCompile(`^\d+$`)
	answerPattern    = regexp.MustCompile(`(?:答案|answer)\s*[:：]\s*(\d+)`)
	uidPattern       = regexp.MustCompile(`^uid[:：]\s*(\d+)`)
	spaceURLPattern  = regexp.MustCompile(`(?:https?://)?space\.[\w.-]+/(\d+)`)
	digitRunPattern  = regexp.MustCompile(`\d{4,}`)
)

// ExtractAccountID pulls an external account id out of a free-text join
// answer. Strategies are tried in order: the whole text as a number, an
// "answer: <id>" line, a "uid:" prefix, a profile page URL, and finally the
// first run of four or more digits anywhere in the text. The last strategy
// is a deliberate heuristic: a long number embedded in unrelated text is
// accepted.
func ExtractAccountID(answer string) (string, bool) {
	text := strings.TrimSpace(answer)
	if text == "" {
		return "", false
	}

	if allDigitsPattern.MatchString(text) {
		return text, true
	}
	if m := answerPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := uidPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := spaceURLPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := digitRunPattern.FindString(text); m != "" {
		return m, true
	}
	return "", false
}
