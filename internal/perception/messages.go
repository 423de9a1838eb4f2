package perception

import "strings"

// Request is the context kirby sends to a model in one call.
type Request struct {
	// Prompts are the tracked prompt lines, in order.
	Prompts []string
	// Files are pre-rendered file blocks (see world.ReadFiles).
	Files []string
	// Pages are extracted URL texts, one entry per page.
	Pages []string
	// Final is appended last, after all context.
	Final string
}

// FormatRequest renders r as a single user message. Sections are separated by
// blank lines and empty sections are left out.
func FormatRequest(r Request) string {
	var sections []string
	if len(r.Prompts) > 0 {
		sections = append(sections, strings.Join(r.Prompts, "\n"))
	}
	for _, block := range r.Files {
		if strings.TrimSpace(block) != "" {
			sections = append(sections, block)
		}
	}
	for _, page := range r.Pages {
		if strings.TrimSpace(page) != "" {
			sections = append(sections, page)
		}
	}
	if final := strings.TrimSpace(r.Final); final != "" {
		sections = append(sections, final)
	}
	return strings.Join(sections, "\n\n")
}
