package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Notes folder or file; empty until the user loads one.
	Path string

	ShowAllFiles    bool
	Match           string
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	EnableMouse     bool

	// Engine is the name of the TTS engine, shown in the header.
	Engine string

	// For debugging the UI
	GlamourEnabled bool `env:"NOTEREADER_ENABLE_GLAMOUR" envDefault:"true"`
	AltScreen      bool `env:"NOTEREADER_ALT_SCREEN"     envDefault:"true"`
}
