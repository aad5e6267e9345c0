package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mrlokans/notebridge/internal/entities"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. NOTEBRIDGE_PORT.
	EnvPrefix = "NOTEBRIDGE"

	// DefaultConfigName is looked up as <name>.yaml in the working directory
	// and the user config directory.
	DefaultConfigName = "notebridge"

	DefaultProfilesDir = "./profiles"
	DefaultProfile     = "User 1"
)

type (
	Config struct {
		HTTP
		Global
		Collection
		Import
		Search
		Remote
		Hooks
		Tasks
	}

	HTTP struct {
		Port int32 `validate:"min=1,max=65535"`
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int `validate:"min=0"`
		EnableDebugLog           bool
	}

	// Collection locates the active profile. Other profiles are siblings
	// of it under ProfilesDir.
	Collection struct {
		ProfilesDir string `validate:"required"`
		Profile     string `validate:"required"`
	}

	Import struct {
		Workers          int `validate:"min=1,max=64"`
		SkipDuplicates   bool
		CopyTags         bool
		CopyCardData     bool
		ExportedTag      string
		CallAddCardsHook bool
	}

	Search struct {
		AllowEmptySearch  bool
		SearchTheWeb      bool
		SentenceMinLength int `validate:"min=0"`
		SentenceMaxLength int `validate:"min=0"`
		MaxDisplayedNotes int `validate:"min=1"`
		SentenceFieldName string
		HiddenFields      []string
	}

	Remote struct {
		TimeoutSeconds int    `validate:"min=1"`
		APIURL         string `validate:"omitempty,url"`
		Fields         entities.RemoteFieldMapping
	}

	Hooks struct {
		URL         string
		Timeout     time.Duration
		Concurrency int `validate:"min=1"`
	}

	Tasks struct {
		Enabled         bool
		Workers         int `validate:"min=1"`
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

// Options tell NewConfig where to look for optional files.
type Options struct {
	// ConfigFile overrides the notebridge.yaml lookup.
	ConfigFile string
	// EnvFile is loaded into the process environment first. Defaults to ".env".
	EnvFile string
}

// ProfileDir is the directory of the active profile.
func (c *Config) ProfileDir() string {
	return filepath.Join(c.ProfilesDir, c.Profile)
}

// RemoteTimeout is the per-request timeout for every outbound call.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8190)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("enable_debug_log", false)

	v.SetDefault("profiles_dir", DefaultProfilesDir)
	v.SetDefault("profile", DefaultProfile)

	v.SetDefault("import_workers", 5)
	v.SetDefault("skip_duplicates", true)
	v.SetDefault("copy_tags", true)
	v.SetDefault("copy_card_data", true)
	v.SetDefault("exported_tag", "exported")
	v.SetDefault("call_add_cards_hook", true)

	v.SetDefault("allow_empty_search", false)
	v.SetDefault("search_the_web", false)
	v.SetDefault("sentence_min_length", 0)
	v.SetDefault("sentence_max_length", 0)
	v.SetDefault("max_displayed_notes", 100)
	v.SetDefault("sentence_field_name", "SentKanji")
	v.SetDefault("hidden_fields", []string{})

	v.SetDefault("timeout_seconds", 10)
	v.SetDefault("remote_api_url", "")
	fields := entities.DefaultRemoteFieldMapping()
	v.SetDefault("remote_fields.sentence_kanji", fields.SentenceKanji)
	v.SetDefault("remote_fields.sentence_furigana", fields.SentenceFurigana)
	v.SetDefault("remote_fields.sentence_eng", fields.SentenceEng)
	v.SetDefault("remote_fields.sentence_audio", fields.SentenceAudio)
	v.SetDefault("remote_fields.image", fields.Image)
	v.SetDefault("remote_fields.notes", fields.Notes)

	v.SetDefault("hook_url", "")
	v.SetDefault("hook_timeout", "2s")
	v.SetDefault("hook_concurrency", 4)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_workers", 1)
	v.SetDefault("tasks_release_after", "45m")
	v.SetDefault("tasks_cleanup_interval", "1h")
}

// NewConfig builds the configuration from defaults, an optional
// notebridge.yaml, the .env file and the environment, in increasing order
// of precedence, and validates the result.
func NewConfig(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "notebridge"))
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		HTTP: HTTP{
			Port: v.GetInt32("port"),
			Host: v.GetString("host"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("shutdown_timeout_in_seconds"),
			EnableDebugLog:           v.GetBool("enable_debug_log"),
		},
		Collection: Collection{
			ProfilesDir: expandPath(v.GetString("profiles_dir")),
			Profile:     v.GetString("profile"),
		},
		Import: Import{
			Workers:          v.GetInt("import_workers"),
			SkipDuplicates:   v.GetBool("skip_duplicates"),
			CopyTags:         v.GetBool("copy_tags"),
			CopyCardData:     v.GetBool("copy_card_data"),
			ExportedTag:      strings.TrimSpace(v.GetString("exported_tag")),
			CallAddCardsHook: v.GetBool("call_add_cards_hook"),
		},
		Search: Search{
			AllowEmptySearch:  v.GetBool("allow_empty_search"),
			SearchTheWeb:      v.GetBool("search_the_web"),
			SentenceMinLength: v.GetInt("sentence_min_length"),
			SentenceMaxLength: v.GetInt("sentence_max_length"),
			MaxDisplayedNotes: v.GetInt("max_displayed_notes"),
			SentenceFieldName: v.GetString("sentence_field_name"),
			HiddenFields:      splitList(v.GetStringSlice("hidden_fields")),
		},
		Remote: Remote{
			TimeoutSeconds: v.GetInt("timeout_seconds"),
			APIURL:         v.GetString("remote_api_url"),
			Fields: entities.RemoteFieldMapping{
				SentenceKanji:    v.GetString("remote_fields.sentence_kanji"),
				SentenceFurigana: v.GetString("remote_fields.sentence_furigana"),
				SentenceEng:      v.GetString("remote_fields.sentence_eng"),
				SentenceAudio:    v.GetString("remote_fields.sentence_audio"),
				Image:            v.GetString("remote_fields.image"),
				Notes:            v.GetString("remote_fields.notes"),
			},
		},
		Hooks: Hooks{
			URL:         v.GetString("hook_url"),
			Timeout:     v.GetDuration("hook_timeout"),
			Concurrency: v.GetInt("hook_concurrency"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("tasks_enabled"),
			Workers:         v.GetInt("tasks_workers"),
			ReleaseAfter:    v.GetDuration("tasks_release_after"),
			CleanupInterval: v.GetDuration("tasks_cleanup_interval"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the sentence length bounds.
func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(Search)
		if s.SentenceMaxLength > 0 && s.SentenceMaxLength < s.SentenceMinLength {
			sl.ReportError(s.SentenceMaxLength, "SentenceMaxLength", "SentenceMaxLength", "gtefield", "SentenceMinLength")
		}
	}, Search{})

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// expandPath expands ~ and environment variables in a path
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path)
}
