package display

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
)

// Highlighter turns plain text into its terminal rendering.
type Highlighter func(text string) (string, error)

// PlainHighlighter returns text unchanged.
func PlainHighlighter(text string) (string, error) { return text, nil }

// CodeHighlighter colours source in language using the named chroma style.
// Unknown languages and styles fall back to chroma's defaults.
func CodeHighlighter(language, theme string) Highlighter {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromastyles.Get(theme)
	if style == nil {
		style = chromastyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	return func(code string) (string, error) {
		iterator, err := lexer.Tokenise(nil, code)
		if err != nil {
			return "", fmt.Errorf("tokenise: %w", err)
		}
		var buf bytes.Buffer
		if err := formatter.Format(&buf, style, iterator); err != nil {
			return "", fmt.Errorf("format: %w", err)
		}
		return buf.String(), nil
	}
}

// MarkdownHighlighter renders markdown with glamour. style is a glamour
// standard style name such as "dark", "light" or "notty"; width of zero
// disables word wrapping.
func MarkdownHighlighter(style string, width int) Highlighter {
	return func(md string) (string, error) {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", fmt.Errorf("create markdown renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		return strings.Trim(out, "\n"), nil
	}
}
