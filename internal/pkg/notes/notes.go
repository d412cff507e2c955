// Package notes handles the free-text notes trail kept on subscriptions and
// betslips.
package notes

import "strings"

// Separator joins successive entries in a notes trail.
const Separator = "\n\n"

// Append adds entry after existing, separated by a blank line. Prior notes are
// kept verbatim; an empty entry leaves them unchanged.
func Append(existing, entry string) string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return existing
	}
	if strings.TrimSpace(existing) == "" {
		return entry
	}
	return existing + Separator + entry
}

// Tagged appends "<TAG>: <reason>".
func Tagged(existing, tag, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return existing
	}
	return Append(existing, tag+": "+reason)
}
