package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
	Output           string `mapstructure:"output"`
	GroupIDPrefix    string `mapstructure:"group_id_prefix"`
	QuestionIDPrefix string `mapstructure:"question_id_prefix"`
	Strict           bool   `mapstructure:"strict"`
	WatchDebounceMs  int    `mapstructure:"watch_debounce_ms"`
	ColorHeader      string `mapstructure:"color_header"`
	ColorRequired    string `mapstructure:"color_required"`
	ColorDim         string `mapstructure:"color_dim"`
	ColorCursor      string `mapstructure:"color_cursor"`
	ColorSelected    string `mapstructure:"color_selected"`
	ColorBorder      string `mapstructure:"color_border"`
}

// C is the global config instance
var C Config

// Init initializes configuration with viper
func Init() error {
	SetDefaults()

	viper.SetConfigName("surveymd")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "surveymd"))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("SURVEYMD")
	viper.AutomaticEnv()

	// Try to read config, but don't fail if not found or malformed
	_ = viper.ReadInConfig()

	return viper.Unmarshal(&C)
}

// SetDefaults registers the default value of every key
func SetDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("output", "print")
	viper.SetDefault("group_id_prefix", "g")
	viper.SetDefault("question_id_prefix", "q")
	viper.SetDefault("strict", false)
	viper.SetDefault("watch_debounce_ms", 150)
	viper.SetDefault("color_header", "36")   // Cyan
	viper.SetDefault("color_required", "31") // Red
	viper.SetDefault("color_dim", "90")      // Gray
	viper.SetDefault("color_cursor", "33")   // Yellow
	viper.SetDefault("color_selected", "32") // Green
	viper.SetDefault("color_border", "8")
}

// GetLogLevel returns the minimum log level
func GetLogLevel() string {
	return viper.GetString("log_level")
}

// GetLogFormat returns the log format (text or json)
func GetLogFormat() string {
	return viper.GetString("log_format")
}

// GetOutput returns the output mode
func GetOutput() string {
	return viper.GetString("output")
}

// GetGroupIDPrefix returns the prefix of generated group identifiers
func GetGroupIDPrefix() string {
	return viper.GetString("group_id_prefix")
}

// GetQuestionIDPrefix returns the prefix of generated question identifiers
func GetQuestionIDPrefix() string {
	return viper.GetString("question_id_prefix")
}

// GetStrict returns whether warnings fail a parse
func GetStrict() bool {
	return viper.GetBool("strict")
}

// GetWatchDebounce returns the quiet period of the watch command
func GetWatchDebounce() time.Duration {
	return time.Duration(viper.GetInt("watch_debounce_ms")) * time.Millisecond
}

// GetColorHeader returns ANSI color code for headers
func GetColorHeader() string {
	return viper.GetString("color_header")
}

// GetColorRequired returns ANSI color code for the required marker
func GetColorRequired() string {
	return viper.GetString("color_required")
}

// GetColorDim returns ANSI color code for secondary text
func GetColorDim() string {
	return viper.GetString("color_dim")
}

// GetColorCursor returns ANSI color code for the cursor row
func GetColorCursor() string {
	return viper.GetString("color_cursor")
}

// GetColorSelected returns ANSI color code for included questions
func GetColorSelected() string {
	return viper.GetString("color_selected")
}

// GetColorBorder returns ANSI color code for borders
func GetColorBorder() string {
	return viper.GetString("color_border")
}

// SetOutput sets output mode at runtime
func SetOutput(mode string) {
	viper.Set("output", mode)
	C.Output = mode
}

// SetStrict sets strict mode at runtime
func SetStrict(strict bool) {
	viper.Set("strict", strict)
	C.Strict = strict
}

// SetLogLevel sets the log level at runtime
func SetLogLevel(level string) {
	viper.Set("log_level", level)
	C.LogLevel = level
}
