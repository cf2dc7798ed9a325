package chat

import "strings"

const (
	DefaultTitle = "New conversation"

	titleMaxRunes = 30
	titleEllipsis = "..."
)

var titleFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// DeriveTitle builds a conversation title from the leading text of a message.
// The ellipsis is only appended when the message was actually cut.
func DeriveTitle(message string) string {
	s := titleFlattener.Replace(strings.TrimSpace(message))
	if s == "" {
		return DefaultTitle
	}
	r := []rune(s)
	if len(r) <= titleMaxRunes {
		return s
	}
	return strings.TrimRight(string(r[:titleMaxRunes]), " ") + titleEllipsis
}

// NormalizeTitle trims a user supplied title. ok is false for blank input.
func NormalizeTitle(title string) (string, bool) {
	t := strings.TrimSpace(title)
	return t, t != ""
}
