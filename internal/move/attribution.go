package move

import (
	"fmt"
	"strings"
	"time"
)

const botSuffix = "[bot]"

// timestampLayout mirrors the "Jan 2, 2006, 3:04 PM" style GitHub shows on
// hovercards; attribution lines always render in UTC.
const timestampLayout = "Jan 2, 2006, 3:04 PM"

// formatAuthor renders a user identity for a migrated body. Bots are always
// rendered as a link to the app's listing page so they are never re-pinged;
// humans become a live mention when asked, a profile link otherwise.
func formatAuthor(login string, mention bool, appURL string) string {
	if strings.HasSuffix(login, botSuffix) {
		return fmt.Sprintf("[%s](%s)", login, appURL)
	}
	if mention {
		return "@" + login
	}
	return fmt.Sprintf("[%s](https://github.com/%s)", login, login)
}

// attributionLine builds the "*<author> commented on <timestamp> UTC:*"
// line prepended to every migrated issue and comment body.
func attributionLine(login string, createdAt time.Time, mention bool, appURL string) string {
	return fmt.Sprintf("*%s commented on %s UTC:*",
		formatAuthor(login, mention, appURL),
		createdAt.UTC().Format(timestampLayout))
}
