package faults

// userMessages maps categories to the static copy surfaced to end users.
// Raw error text never reaches users, only the category mapping.
var userMessages = map[Category]string{
	CategoryNetwork:            "Connection problem. Please check your network and try again.",
	CategoryRateLimit:          "Too many requests right now. Publishing will resume automatically.",
	CategoryAuth:               "Your account connection needs attention. Please reconnect the account.",
	CategoryValidation:         "The content could not be accepted. Please review and edit it.",
	CategoryContentPolicy:      "The platform rejected this content for policy reasons.",
	CategoryNotFound:           "The requested item no longer exists.",
	CategoryQuotaExceeded:      "Your plan limit has been reached for this period.",
	CategoryServiceUnavailable: "The service is temporarily unavailable, please try again later.",
	CategoryUnknown:            "Something went wrong. We are retrying automatically.",
}

// UserMessage returns the human-readable message for a category.
func UserMessage(c Category) string {
	if msg, ok := userMessages[c]; ok {
		return msg
	}
	return userMessages[CategoryUnknown]
}
