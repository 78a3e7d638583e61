package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"topnote/pkg/rtedoc"
)

const (
	AppName    = "topnote"
	FileName   = "config"
	FileType   = "yaml"
	EnvPrefix  = "TOPNOTE"
	DefaultBG  = "#A0A0A0"
	DefaultLog = "info"
)

var (
	ErrInvalid = errors.New("config: invalid value")
	ErrExists  = errors.New("config: file already exists")
)

type WindowConfig struct {
	Width       int    `mapstructure:"width"         yaml:"width"`
	Height      int    `mapstructure:"height"        yaml:"height"`
	AlwaysOnTop bool   `mapstructure:"always_on_top" yaml:"always_on_top"`
	Decorated   bool   `mapstructure:"decorated"     yaml:"decorated"`
	Title       string `mapstructure:"title"         yaml:"title"`
}

type EditorConfig struct {
	FontSize    float64 `mapstructure:"font_size"    yaml:"font_size"`
	FontFamily  string  `mapstructure:"font_family"  yaml:"font_family"`
	Bold        bool    `mapstructure:"bold"         yaml:"bold"`
	Italic      bool    `mapstructure:"italic"       yaml:"italic"`
	Background  string  `mapstructure:"background"   yaml:"background"`
	Foreground  string  `mapstructure:"foreground"   yaml:"foreground"`
	LineNumbers bool    `mapstructure:"line_numbers" yaml:"line_numbers"`
}

// Font families of the bundled Go fonts.
const (
	FamilySans = "sans"
	FamilyMono = "mono"
)

type ImagesConfig struct {
	MaxWidth  int `mapstructure:"max_width"  yaml:"max_width"`
	MaxHeight int `mapstructure:"max_height" yaml:"max_height"`
}

type LogConfig struct {
	File    string `mapstructure:"file"    yaml:"file"`
	Level   string `mapstructure:"level"   yaml:"level"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

type StorageConfig struct {
	Compress bool   `mapstructure:"compress" yaml:"compress"`
	Encrypt  bool   `mapstructure:"encrypt"  yaml:"encrypt"`
	Password string `mapstructure:"password" yaml:"password"`
}

type Config struct {
	Window  WindowConfig  `mapstructure:"window"  yaml:"window"`
	Editor  EditorConfig  `mapstructure:"editor"  yaml:"editor"`
	Images  ImagesConfig  `mapstructure:"images"  yaml:"images"`
	Log     LogConfig     `mapstructure:"log"     yaml:"log"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Path of the file the values were read from, empty for defaults only.
	Source string `mapstructure:"-" yaml:"-"`
}

func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:       800,
			Height:      600,
			AlwaysOnTop: true,
			Decorated:   true,
			Title:       "TopNote",
		},
		Editor: EditorConfig{
			FontSize:    14,
			FontFamily:  FamilySans,
			Background:  DefaultBG,
			LineNumbers: true,
		},
		Images: ImagesConfig{MaxWidth: 400, MaxHeight: 300},
		Log: LogConfig{
			File:  DefaultLogFile(),
			Level: DefaultLog,
		},
	}
}

// Dir is $XDG_CONFIG_HOME/topnote or the platform equivalent.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, AppName)
}

func DefaultPath() string {
	return filepath.Join(Dir(), FileName+"."+FileType)
}

func DefaultLogFile() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, AppName, AppName+".log")
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("window.width", d.Window.Width)
	v.SetDefault("window.height", d.Window.Height)
	v.SetDefault("window.always_on_top", d.Window.AlwaysOnTop)
	v.SetDefault("window.decorated", d.Window.Decorated)
	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("editor.font_size", d.Editor.FontSize)
	v.SetDefault("editor.font_family", d.Editor.FontFamily)
	v.SetDefault("editor.bold", d.Editor.Bold)
	v.SetDefault("editor.italic", d.Editor.Italic)
	v.SetDefault("editor.background", d.Editor.Background)
	v.SetDefault("editor.foreground", d.Editor.Foreground)
	v.SetDefault("editor.line_numbers", d.Editor.LineNumbers)
	v.SetDefault("images.max_width", d.Images.MaxWidth)
	v.SetDefault("images.max_height", d.Images.MaxHeight)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("storage.compress", d.Storage.Compress)
	v.SetDefault("storage.encrypt", d.Storage.Encrypt)
	v.SetDefault("storage.password", d.Storage.Password)
}

// Load reads path, or the default location when path is empty. A missing
// default file is not an error; a missing explicit one is. TOPNOTE_* env
// vars override both, e.g. TOPNOTE_EDITOR_FONT_SIZE.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType(FileType)
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height))
	}
	if c.Editor.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: editor.font_size %v", ErrInvalid, c.Editor.FontSize))
	}
	if f := c.Editor.FontFamily; f != FamilySans && f != FamilyMono {
		errs = append(errs, fmt.Errorf("%w: editor.font_family %q (want %s or %s)", ErrInvalid, f, FamilySans, FamilyMono))
	}
	if _, err := rtedoc.ParseColor(c.Editor.Background); err != nil {
		errs = append(errs, fmt.Errorf("%w: editor.background: %w", ErrInvalid, err))
	}
	if c.Editor.Foreground != "" {
		if _, err := rtedoc.ParseColor(c.Editor.Foreground); err != nil {
			errs = append(errs, fmt.Errorf("%w: editor.foreground: %w", ErrInvalid, err))
		}
	}
	if c.Images.MaxWidth <= 0 || c.Images.MaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("%w: image bounds %dx%d", ErrInvalid, c.Images.MaxWidth, c.Images.MaxHeight))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level))
	}
	if c.Storage.Encrypt && c.Storage.Password == "" {
		errs = append(errs, fmt.Errorf("%w: storage.encrypt needs storage.password", ErrInvalid))
	}
	return errors.Join(errs...)
}

// Background falls back to the default gray when the value does not parse.
func (c *Config) Background() color.RGBA {
	if bg, err := rtedoc.ParseColor(c.Editor.Background); err == nil {
		return bg
	}
	bg, _ := rtedoc.ParseColor(DefaultBG)
	return bg
}

// Foreground is nil when the text colour should follow the background.
func (c *Config) Foreground() *color.RGBA {
	if c.Editor.Foreground == "" {
		return nil
	}
	fg, err := rtedoc.ParseColor(c.Editor.Foreground)
	if err != nil {
		return nil
	}
	return &fg
}

func (c *Config) SaveOptions() rtedoc.SaveOptions {
	return rtedoc.SaveOptions{
		Compression: c.Storage.Compress,
		Encryption: rtedoc.EncryptionOptions{
			Enabled:  c.Storage.Encrypt,
			Password: c.Storage.Password,
		},
	}
}

func (c *Config) LoadOptions() rtedoc.LoadOptions {
	return rtedoc.LoadOptions{Password: c.Storage.Password}
}

// WriteDefault writes the default configuration to path. It refuses to
// replace an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}
