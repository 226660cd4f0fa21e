// Package config holds the application configuration shared by the CLI and
// the interactive shell.
package config

// AppConfig is populated from command line flags in main.
type AppConfig struct {
	// Port the interactive shell listens on.
	Port int
	// LineThickness is the divider width in columns.
	LineThickness int
	// LineColor is the divider color, hex or named (see images.ParseColor).
	LineColor string
	// ResizeToMatch scales mismatched operands to common dimensions instead
	// of rejecting them.
	ResizeToMatch bool
	// Demo pre-seeds the shell with generated sample images.
	Demo bool
}
