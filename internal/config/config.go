// Package config loads the closegraph configuration file: an HCL document
// declaring the server settings and, optionally, the reusable close
// checklist as a set of template blocks.
//
// Template blocks may reference each other by label through depends_on.
// Labels are translated to ids only after every template exists, and the
// resulting dependency sets are applied through the Dependency Editor, so
// configuration input is cycle-checked exactly like API input.
package config

// Config is the format-agnostic configuration model.
type Config struct {
	Server    Server
	Templates []Template
}

// Server holds the HTTP and logging settings.
type Server struct {
	ListenAddr string
	LogLevel   string // debug|info|warn|error
	LogFormat  string // text|json
}

// Template is one declarative template block. Label is the block label
// used by depends_on references; it never leaves the loader.
type Template struct {
	Label             string
	Name              string
	Description       string
	CloseType         string
	Department        string
	DefaultAssigneeID string
	DaysOffset        int
	SortOrder         int
	EstimatedHours    *float64
	DependsOn         []string
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{Server: Server{
		ListenAddr: ":8080",
		LogLevel:   "info",
		LogFormat:  "text",
	}}
}
