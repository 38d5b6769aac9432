package studio

import "strings"

// PromptBuilder holds the current free-text prompt.
type PromptBuilder struct {
	text string
}

// Set replaces the prompt verbatim.
func (p *PromptBuilder) Set(text string) {
	p.text = text
}

// Append joins text onto the prompt with a single space.
func (p *PromptBuilder) Append(text string) {
	if p.text == "" {
		p.text = text
		return
	}
	p.text = p.text + " " + text
}

func (p *PromptBuilder) Clear() {
	p.text = ""
}

func (p *PromptBuilder) Text() string {
	return p.text
}

// Usable reports whether the prompt has any non-whitespace content.
func (p *PromptBuilder) Usable() bool {
	return strings.TrimSpace(p.text) != ""
}
