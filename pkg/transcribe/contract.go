package transcribe

import "strings"

// Clients that run speech recognition on the device send the result in the
// message field as "<SuppliedPrefix> <text>". While recognition is still
// running they send PendingText instead, which means "not transcribed".
const (
	SuppliedPrefix = "🚨 EMERGENCY:"
	PendingText    = "Voice recording received - transcribing..."
)

// SuppliedTranscript extracts a client-side transcript from a message.
// ok is false when the message does not carry one or carries the pending
// placeholder.
func SuppliedTranscript(message string) (text string, ok bool) {
	idx := strings.Index(message, SuppliedPrefix)
	if idx < 0 {
		return "", false
	}
	text = strings.TrimSpace(message[idx+len(SuppliedPrefix):])
	if text == "" || IsPlaceholderText(text) {
		return "", false
	}
	return text, true
}

// IsPlaceholderText reports whether text is the pending marker rather than
// real speech.
func IsPlaceholderText(text string) bool {
	t := strings.TrimSpace(text)
	return t == PendingText || t == SuppliedPrefix+" "+PendingText || isNoSpeechMarker(t)
}
