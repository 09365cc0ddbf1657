package chat

// TitleMaxLength is the number of leading characters of the first user
// message used as the derived chat title.
const TitleMaxLength = 30

const titleEllipsis = "..."

// DeriveTitle returns a copy of the chat with its title derived from the
// first user message, truncated to TitleMaxLength characters with an
// ellipsis marker when the content was longer.
//
// The derivation happens exactly once: chats whose title is no longer the
// sentinel are returned unchanged, which makes DeriveTitle idempotent.
func DeriveTitle(c Chat) Chat {
	if c.Title != SentinelTitle {
		return c
	}

	first, ok := c.FirstUserMessage()
	if !ok {
		return c
	}

	title := first.Content
	if runes := []rune(title); len(runes) > TitleMaxLength {
		title = string(runes[:TitleMaxLength]) + titleEllipsis
	}

	c.Title = title
	return c
}
