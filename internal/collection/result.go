package collection

// Level classifies a Result.
type Level int

const (
	Success Level = iota
	Warning
)

// Result is the outcome of a facade operation. Warnings are not errors: the
// operation was a no-op and the command still exits zero.
type Result struct {
	Level   Level
	Message string
	// Changed is true when a new snapshot was persisted.
	Changed bool
}

func (r Result) String() string {
	if r.Level == Warning {
		return "⚠️  " + r.Message
	}
	return "✅ " + r.Message
}

// IsWarning reports whether r is a warning.
func (r Result) IsWarning() bool {
	return r.Level == Warning
}

func success(msg string) Result {
	return Result{Level: Success, Message: msg, Changed: true}
}

func warning(msg string) Result {
	return Result{Level: Warning, Message: msg}
}
