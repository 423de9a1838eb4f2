package config

// FilesConfig controls directory expansion and file reading.
type FilesConfig struct {
	// IgnorePatterns skips matching names (glob, matched against each path element).
	IgnorePatterns []string `yaml:"ignore_patterns"`
	// MaxFileBytes skips larger files when building LLM context.
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

// DefaultIgnorePatterns are skipped when expanding directories.
var DefaultIgnorePatterns = []string{
	"__pycache__",
	"*.py[co]",
	"*.egg-info",
	".DS_Store",
	".git",
	".venv",
	"venv",
	"build",
	"dist",
	".env",
	"LICENSE",
	"node_modules",
	".kirby",
}

// DefaultFilesConfig returns defaults for file discovery.
func DefaultFilesConfig() FilesConfig {
	patterns := make([]string, len(DefaultIgnorePatterns))
	copy(patterns, DefaultIgnorePatterns)
	return FilesConfig{
		IgnorePatterns: patterns,
		MaxFileBytes:   1 << 20,
	}
}
