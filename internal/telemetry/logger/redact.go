package logger

import (
	"log/slog"
	"strconv"
)

// MaxKeyLen is the longest key logged verbatim; longer keys are truncated.
const MaxKeyLen = 128

// redactAttr hides stored values and truncates oversized keys. Values are
// replaced by their size so a debug log still shows what was written.
func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	switch a.Key {
	case "value":
		return slog.String(a.Key, "<"+strconv.Itoa(len(a.Value.String()))+" bytes>")
	case "key":
		if s := a.Value.String(); len(s) > MaxKeyLen {
			return slog.String(a.Key, s[:MaxKeyLen]+"...")
		}
	}
	return a
}
