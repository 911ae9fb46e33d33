package notifier

import (
	"strings"
	"time"
)

// Telegram rejects messages past ~4096 chars; leave headroom for the fence.
const maxMessageLen = 3600

// MessageSection 表示推送中的一个段落（如“订单”“失败”）。
type MessageSection struct {
	Title string
	Lines []string
}

// StructuredMessage 描述统一格式的调仓结果推送。
type StructuredMessage struct {
	Icon      string
	Title     string
	Sections  []MessageSection
	Timestamp time.Time
}

// RenderMarkdown 生成 Markdown 文本，超长自动截断。
func (m StructuredMessage) RenderMarkdown() string {
	var b strings.Builder
	if header := strings.TrimSpace(m.Icon + " " + m.Title); header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}
	b.WriteString(m.renderBody())
	if !m.Timestamp.IsZero() {
		b.WriteString("时间：" + m.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	out := strings.TrimSpace(b.String())
	if len(out) > maxMessageLen {
		out = out[:maxMessageLen] + "..."
	}
	return out
}

func (m StructuredMessage) renderBody() string {
	blocks := make([]string, 0, len(m.Sections))
	for _, sec := range m.Sections {
		var lines []string
		for _, line := range sec.Lines {
			if text := strings.TrimSpace(line); text != "" {
				lines = append(lines, "- "+escapeFence(text))
			}
		}
		if len(lines) == 0 {
			continue
		}
		block := strings.Join(lines, "\n")
		if title := strings.TrimSpace(sec.Title); title != "" {
			block = escapeFence(title) + "\n" + block
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return ""
	}
	return "```\n" + strings.Join(blocks, "\n\n") + "\n```\n\n"
}

// escapeFence keeps venue payload fragments from closing our code fence.
func escapeFence(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}
