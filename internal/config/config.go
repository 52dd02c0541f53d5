package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort         = 8080
	DefaultHost         = "127.0.0.1"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultOCRDPI       = 300
	DefaultBatchWorkers = 4
	DefaultTemplatesDir = "templates"
)

// Config holds all configuration for the extraction server and CLI
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Extraction configuration
	TemplatesDir    string
	MaxFileSize     int64 // Maximum document file size in bytes
	BatchWorkers    int
	ContinueOnError bool

	// OCR configuration
	OCREnabled     bool
	OCRDPI         int
	TessdataPrefix string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		TemplatesDir:    DefaultTemplatesDir,
		MaxFileSize:     DefaultMaxFileSize,
		BatchWorkers:    DefaultBatchWorkers,
		ContinueOnError: true,
		OCREnabled:      false,
		OCRDPI:          DefaultOCRDPI,
		TessdataPrefix:  "",
		Version:         "1.0.0",
		ServerName:      "openextract",
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.TemplatesDir != "" {
		if expandedPath, err := filepath.Abs(cfg.TemplatesDir); err == nil {
			cfg.TemplatesDir = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("OPENEXTRACT")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("templates", cfg.TemplatesDir)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("workers", cfg.BatchWorkers)
	viper.SetDefault("continueonerror", cfg.ContinueOnError)
	viper.SetDefault("ocr", cfg.OCREnabled)
	viper.SetDefault("ocrdpi", cfg.OCRDPI)
	viper.SetDefault("tessdata", cfg.TessdataPrefix)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("templates", cfg.TemplatesDir, "Directory containing template definitions")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document file size in bytes")
	pflag.Int("workers", cfg.BatchWorkers, "Concurrent documents in batch mode")
	pflag.Bool("continueonerror", cfg.ContinueOnError, "Skip failed documents in batch mode instead of aborting")
	pflag.Bool("ocr", cfg.OCREnabled, "Enable OCR for documents with unusable text layers")
	pflag.Int("ocrdpi", cfg.OCRDPI, "OCR rendering resolution")
	pflag.String("tessdata", cfg.TessdataPrefix, "Tesseract data directory (empty uses the system default)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "templates", "loglevel", "maxfilesize",
		"workers", "continueonerror", "ocr", "ocrdpi", "tessdata",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nopenextract - template-driven document field extraction over MCP\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                        "+
			"# stdio mode, ./templates (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --templates=/path/to/templates         "+
			"# stdio mode with custom catalog\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=8081              # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --ocr --tessdata=/usr/share/tessdata   # with OCR\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_MODE             Server mode\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_HOST             Server host\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_PORT             Server port\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_TEMPLATES        Template directory\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_LOGLEVEL         Log level\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_MAXFILESIZE      Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_WORKERS          Batch worker count\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_CONTINUEONERROR  Batch failure policy\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_OCR              Enable OCR\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_OCRDPI           OCR resolution\n")
		fmt.Fprintf(os.Stderr, "  OPENEXTRACT_TESSDATA         Tesseract data directory\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.TemplatesDir = viper.GetString("templates")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.BatchWorkers = viper.GetInt("workers")
	cfg.ContinueOnError = viper.GetBool("continueonerror")
	cfg.OCREnabled = viper.GetBool("ocr")
	cfg.OCRDPI = viper.GetInt("ocrdpi")
	cfg.TessdataPrefix = viper.GetString("tessdata")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate template directory
	if c.TemplatesDir == "" {
		return errors.New("template directory cannot be empty")
	}
	if info, err := os.Stat(c.TemplatesDir); err != nil {
		return fmt.Errorf("cannot access template directory %s: %w", c.TemplatesDir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("template path is not a directory: %s", c.TemplatesDir)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate batch workers
	if c.BatchWorkers < 1 {
		return errors.New("batch workers must be at least 1")
	}

	// Validate OCR resolution
	if c.OCREnabled && (c.OCRDPI < 70 || c.OCRDPI > 1200) {
		return errors.New("OCR resolution must be between 70 and 1200 DPI")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, TemplatesDir: %s, LogLevel: %s, MaxFileSize: %d, OCR: %t, Workers: %d}",
		c.Mode, c.Host, c.Port, c.TemplatesDir, c.LogLevel, c.MaxFileSize, c.OCREnabled, c.BatchWorkers)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
