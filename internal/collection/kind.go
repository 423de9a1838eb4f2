// Package collection wraps the generic history store with the user-facing
// collections kirby tracks: prompts, shared files, processing files and URLs.
// Each facade trims and validates input, refuses no-op mutations, and reports
// the outcome as a Result instead of printing.
package collection

// Kind names a collection and the words used when talking about it.
type Kind struct {
	Name  string // persisted name, e.g. prompt_history
	Noun  string // singular, lower case: "prompt"
	Title string // singular, capitalised: "Prompt"
	Label string // plural heading: "Prompts"
	Icon  string
}

var (
	Prompts = Kind{
		Name:  "prompt_history",
		Noun:  "prompt",
		Title: "Prompt",
		Label: "Prompts",
		Icon:  "📜",
	}
	SharedFiles = Kind{
		Name:  "shared_files",
		Noun:  "shared file",
		Title: "Shared file",
		Label: "Shared files",
		Icon:  "📁",
	}
	ProcessingFiles = Kind{
		Name:  "processing_files",
		Noun:  "processing file",
		Title: "Processing file",
		Label: "Processing files",
		Icon:  "⚙️",
	}
	URLs = Kind{
		Name:  "url_history",
		Noun:  "URL",
		Title: "URL",
		Label: "URLs",
		Icon:  "🔗",
	}
)

// Kinds lists every collection in display order.
var Kinds = []Kind{Prompts, SharedFiles, ProcessingFiles, URLs}
