package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/service/normalize"
	"github.com/oncoguard/oncoguard/pkg/usecase"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// RuleFile is the TOML layout of an engine rules file. Omitted keys keep
// their built-in values.
type RuleFile struct {
	SectionScope         []string              `toml:"section_scope"`
	RecommendationMarker *string               `toml:"recommendation_marker"`
	BroadQuerySuffix     *string               `toml:"broad_query_suffix"`
	RedFlags             normalize.PhraseRules `toml:"red_flag"`
	Tags                 normalize.PhraseRules `toml:"tag"`
	Limits               RuleLimits            `toml:"limits"`
}

// RuleLimits overrides the engine limits
type RuleLimits struct {
	ItemSearch        *int `toml:"item_search"`
	BroadSearch       *int `toml:"broad_search"`
	Evidence          *int `toml:"evidence"`
	MissingActions    *int `toml:"missing_actions"`
	MissingPrefix     *int `toml:"missing_prefix_tokens"`
	MissingDisplay    *int `toml:"missing_display_runes"`
	AppliedGuidelines *int `toml:"applied_guidelines"`
	TimelineFallback  *int `toml:"timeline_fallback_events"`
}

// Apply overlays the file onto rules
func (f *RuleFile) Apply(rules *usecase.Rules) {
	if f.SectionScope != nil {
		rules.SectionScope = f.SectionScope
	}
	if f.RecommendationMarker != nil {
		rules.RecommendationMarker = *f.RecommendationMarker
	}
	if f.BroadQuerySuffix != nil {
		rules.BroadQuerySuffix = *f.BroadQuerySuffix
	}
	if f.RedFlags != nil {
		rules.RedFlags = f.RedFlags
	}
	if f.Tags != nil {
		rules.TagRules = f.Tags
	}

	overlay := []struct {
		src *int
		dst *int
	}{
		{f.Limits.ItemSearch, &rules.ItemSearchLimit},
		{f.Limits.BroadSearch, &rules.BroadSearchLimit},
		{f.Limits.Evidence, &rules.EvidenceLimit},
		{f.Limits.MissingActions, &rules.MissingActionLimit},
		{f.Limits.MissingPrefix, &rules.MissingPrefixTokens},
		{f.Limits.MissingDisplay, &rules.MissingDisplayRunes},
		{f.Limits.AppliedGuidelines, &rules.AppliedGuidelineLimit},
		{f.Limits.TimelineFallback, &rules.TimelineFallbackEvents},
	}
	for _, o := range overlay {
		if o.src != nil {
			*o.dst = *o.src
		}
	}
}

// LoadRules reads a TOML rules file and overlays it on the built-in rules
func LoadRules(path string) (*usecase.Rules, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "rules file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read rules file", goerr.V(ConfigPathKey, path))
	}

	var file RuleFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse rules file", goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	rules := usecase.DefaultRules()
	file.Apply(rules)
	if err := rules.Validate(); err != nil {
		return nil, goerr.Wrap(err, "rules validation failed", goerr.V(ConfigPathKey, path))
	}
	return rules, nil
}

// Rules holds the CLI flag for the engine rules file
type Rules struct {
	path string
}

// Flags returns CLI flags for rules configuration
func (r *Rules) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "rules",
			Usage:       "TOML file overriding the built-in validation rules",
			Category:    "Engine",
			Sources:     cli.EnvVars("ONCOGUARD_RULES"),
			Destination: &r.path,
		},
	}
}

// LogAttrs returns log attributes for the rules configuration
func (r *Rules) LogAttrs() []slog.Attr {
	path := r.path
	if path == "" {
		path = "(built-in)"
	}
	return []slog.Attr{slog.String("path", path)}
}

// Configure returns the built-in rules, overlaid by the rules file when set
func (r *Rules) Configure() (*usecase.Rules, error) {
	if r.path == "" {
		return usecase.DefaultRules(), nil
	}
	return LoadRules(r.path)
}
