// Package media derives storage names for ingested files and folders.
package media

import "strings"

// ExtensionFromMime maps a MIME type to a file extension for synthesized
// file names. Unknown types get no extension.
func ExtensionFromMime(mimeType string) string {
	normalized := strings.ToLower(mimeType)

	switch {
	case strings.Contains(normalized, "pdf"):
		return ".pdf"
	case strings.Contains(normalized, "jpeg"):
		return ".jpg"
	case strings.Contains(normalized, "png"):
		return ".png"
	case strings.Contains(normalized, "gif"):
		return ".gif"
	case strings.Contains(normalized, "webp"):
		return ".webp"
	case strings.Contains(normalized, "mp4"):
		return ".mp4"
	case strings.Contains(normalized, "mpeg"):
		return ".mp3"
	case strings.Contains(normalized, "ogg"):
		return ".ogg"
	default:
		return ""
	}
}

// FileName returns the stored name for an inbound media message: the
// sender-supplied name when present, otherwise one synthesized from the media
// type, message id, and MIME type.
func FileName(explicit, mediaType, messageID, mimeType string) string {
	if explicit != "" {
		return explicit
	}
	return mediaType + "-" + messageID + ExtensionFromMime(mimeType)
}

// SafeLabel strips characters that are awkward in provider folder names,
// collapsing runs of whitespace. Falls back to the given default when nothing
// usable remains.
func SafeLabel(value, fallback string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-':
			b.WriteRune(r)
		}
	}
	label := strings.Join(strings.Fields(b.String()), " ")
	if label == "" {
		return fallback
	}
	return label
}
