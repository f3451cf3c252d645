package config

const (
	defaultMappingDir = "~/.local/share/refsync/mappings"
	defaultDataDir    = "~/.local/share/refsync"
	defaultBackupDir  = "~/.local/share/refsync/backups"
	defaultLogDir     = "~/.local/share/refsync/logs"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
)

// DefaultCategories is the component category set shipped out of the box.
// Each category gets its own mapping table file.
func DefaultCategories() []string {
	return []string{
		"processor",
		"graphics",
		"vga",
		"display",
		"storage",
		"memory",
		"color",
		"os",
		"keyboard_layout",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MappingDir: defaultMappingDir,
			DataDir:    defaultDataDir,
			BackupDir:  defaultBackupDir,
			LogDir:     defaultLogDir,
		},
		Resolver: Resolver{
			CacheEnabled:  true,
			WatchMappings: false,
			Categories:    DefaultCategories(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
