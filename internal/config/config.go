// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the litsweep configuration with viper and sets up the
// global zap logger.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/litsweep/pkg/types"
)

// EnvPrefix prefixes every environment override (LITSWEEP_DEDUP_FUZZY_THRESHOLD).
const EnvPrefix = "LITSWEEP"

// Secret keys read from the .secrets/ directory.
const (
	SecretSemanticScholarKey = "semantic-scholar-api-key"
	SecretOpenAlexEmail      = "openalex-email"
)

// New returns a viper instance with search paths, environment binding and
// defaults registered. An explicit cfgFile replaces the search paths.
func New(cfgFile string) *viper.Viper {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("litsweep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "litsweep"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every config key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("search.max_results", 500)
	v.SetDefault("search.year_from", 0)
	v.SetDefault("search.year_to", 0)
	v.SetDefault("search.sources", []string{
		string(types.SourceOpenAlex),
		string(types.SourceSemanticScholar),
		string(types.SourceArxiv),
	})
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("search.user_agent", "litsweep/0.1")
	v.SetDefault("search.openalex_email", "")
	v.SetDefault("search.semantic_scholar_api_key", "")
	v.SetDefault("search.rate_limits", map[string]any{
		string(types.SourceOpenAlex):        map[string]any{"requests": 10, "every": "1s"},
		string(types.SourceSemanticScholar): map[string]any{"requests": 1, "every": "1s"},
		string(types.SourceArxiv):           map[string]any{"requests": 1, "every": "3s"},
	})

	v.SetDefault("dedup.fuzzy_threshold", 0.85)
	v.SetDefault("dedup.aggressive", false)
	v.SetDefault("dedup.doi_stage", true)
	v.SetDefault("dedup.composite_stage", true)

	v.SetDefault("rank.scorer", string(types.ScorerLexical))
	v.SetDefault("rank.semantic_weight", 0.7)
	v.SetDefault("rank.top_k_per_source", 20)
	v.SetDefault("rank.ollama_url", "http://localhost:11434")
	v.SetDefault("rank.ollama_model", "nomic-embed-text")

	v.SetDefault("expand.max_total", 100)
	v.SetDefault("expand.per_paper_limit", 20)
	v.SetDefault("expand.max_seeds", 20)
	v.SetDefault("expand.sources", []string{
		string(types.SourceOpenAlex),
		string(types.SourceSemanticScholar),
	})

	v.SetDefault("session.artifacts_dir", "artifacts")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration from file and environment. A missing config file
// is not an error; defaults apply.
func Load(cfgFile string) (*types.Config, error) {
	return LoadFrom(New(cfgFile))
}

// LoadFrom reads the config file registered on v (if any) and unmarshals
// the merged result.
func LoadFrom(v *viper.Viper) (*types.Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	} else {
		zap.L().Debug("config file loaded", zap.String("path", v.ConfigFileUsed()))
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that viper cannot express. All problems are
// reported together.
func Validate(cfg *types.Config) error {
	var problems []string

	if cfg.Search.MaxResults <= 0 {
		problems = append(problems, "search.max_results must be positive")
	}
	if cfg.Search.YearFrom > 0 && cfg.Search.YearTo > 0 && cfg.Search.YearFrom > cfg.Search.YearTo {
		problems = append(problems, "search.year_from is after search.year_to")
	}
	for _, s := range cfg.Search.Sources {
		if !s.Valid() {
			problems = append(problems, "search.sources: unknown source "+string(s))
		}
	}
	for _, s := range cfg.Expand.Sources {
		if s != types.SourceOpenAlex && s != types.SourceSemanticScholar {
			problems = append(problems, "expand.sources: no citation lookup for "+string(s))
		}
	}
	if t := cfg.Dedup.FuzzyThreshold; t < 0 || t > 1 {
		problems = append(problems, "dedup.fuzzy_threshold must be within [0, 1]")
	}
	if w := cfg.Rank.SemanticWeight; w < 0 || w > 1 {
		problems = append(problems, "rank.semantic_weight must be within [0, 1]")
	}
	switch cfg.Rank.Scorer {
	case types.ScorerLexical, types.ScorerOllama:
	default:
		problems = append(problems, "rank.scorer must be lexical or ollama")
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		problems = append(problems, "log.format must be console or json")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ApplySecrets fills credentials that the config left empty.
func ApplySecrets(cfg *types.Config, secrets map[string]string) {
	if cfg.Search.SemanticScholarAPIKey == "" {
		cfg.Search.SemanticScholarAPIKey = secrets[SecretSemanticScholarKey]
	}
	if cfg.Search.OpenAlexEmail == "" {
		cfg.Search.OpenAlexEmail = secrets[SecretOpenAlexEmail]
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg types.LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
