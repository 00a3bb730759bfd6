package logging_test

import "log/slog"

func slogGroup(key string, attrs ...slog.Attr) slog.Attr {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return slog.Group(key, args...)
}
