package chains

import "strings"

// KeepLongestAssistant reduces a chain to its single most substantial
// review: the longest assistant message, preceded by all earlier user
// messages merged into one turn. Chains with no assistant message become
// empty.
func KeepLongestAssistant(msgs []Message) []Message {
	longestIdx := -1
	for i, m := range msgs {
		if m.Role != RoleAssistant {
			continue
		}
		if longestIdx == -1 || len(m.Content) > len(msgs[longestIdx].Content) {
			longestIdx = i
		}
	}
	if longestIdx == -1 {
		return nil
	}

	var userParts []string
	for _, m := range msgs[:longestIdx] {
		if m.Role == RoleUser {
			userParts = append(userParts, m.Content)
		}
	}

	if len(userParts) == 0 {
		return []Message{msgs[longestIdx]}
	}
	return []Message{
		{Role: RoleUser, Content: strings.Join(userParts, " ")},
		msgs[longestIdx],
	}
}
