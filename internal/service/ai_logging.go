package service

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

const maxAILogSnippetRunes = 512

// logAIExchange 输出 AI 接口的输入与命中的回复类型，方便排查关键词匹配。
func logAIExchange(kind, phase, content string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		slog.Debug("ai exchange", slog.String("kind", kind), slog.String("phase", phase), slog.Bool("empty", true))
		return
	}

	runeCount := utf8.RuneCountInString(trimmed)
	snippet := trimmed
	if runeCount > maxAILogSnippetRunes {
		snippet = string([]rune(trimmed)[:maxAILogSnippetRunes]) + "…(truncated)"
	}
	slog.Debug("ai exchange",
		slog.String("kind", kind),
		slog.String("phase", phase),
		slog.Int("runes", runeCount),
		slog.String("content", snippet),
	)
}
