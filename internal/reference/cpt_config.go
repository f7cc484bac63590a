// Package reference loads the external lookup data the audit rules depend on:
// CPT eligibility lists and the SID prefix registry.
package reference

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Range is an inclusive numeric CPT range
type Range struct {
	Low  int
	High int
}

// Contains reports whether n lies within the range
func (r Range) Contains(n int) bool {
	return n >= r.Low && n <= r.High
}

// CPTConfig lists the codes and ranges that decide CPT eligibility
type CPTConfig struct {
	ValidCodes    []string
	InvalidCodes  []string
	ValidRanges   []Range
	InvalidRanges []Range
}

type cptFile struct {
	ValidCodes    []string `mapstructure:"valid_codes"`
	InvalidCodes  []string `mapstructure:"invalid_codes"`
	ValidRanges   [][]int  `mapstructure:"valid_ranges"`
	InvalidRanges [][]int  `mapstructure:"invalid_ranges"`
}

// DefaultCPTConfig is used when no configuration file can be read
func DefaultCPTConfig() CPTConfig {
	return CPTConfig{
		ValidCodes: []string{
			"G0104", "G0105", "G0121", "G0260",
			"92920", "92921", "92928", "92929", "92978",
		},
		InvalidCodes: strings.Fields(defaultInvalidCodes),
		ValidRanges: []Range{
			{10004, 69990},
			{93451, 93462},
			{93566, 93572},
			{93985, 93986},
		},
	}
}

const defaultInvalidCodes = `
11042 11045 16020 16025 16030 19081 19083 19085 20560 20561 25246 27093
29000 29010 29015 29020 29025 29035 29040 29044 29046 29049 29055 29058 29065 29075 29085 29086
29105 29125 29126 29130 29131 29200 29240 29260 29280 29305 29325 29345 29355 29358 29365
29405 29425 29435 29440 29445 29450 29505 29515 29520 29530 29540 29550 29580 29581 29582 29583 29584
29700 29705 29710 29715 29720 29730 29740 29750 29799
31500 32555 36005 36010 36215 36221 36400 36405 36406 36410 36415 36416 36420 36425 36430 36440 36450 36455 36460 36468 36469 36470 36471
36591 36592 36593 36600 36620 36625 36660 37252 38505 49424 51701 51702 51798 59020 59025 59050
`

// ParseCPTConfig reads a YAML or JSON CPT configuration file
func ParseCPTConfig(path string) (CPTConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return CPTConfig{}, fmt.Errorf("failed to read CPT config: %w", err)
	}

	var raw cptFile
	if err := v.Unmarshal(&raw); err != nil {
		return CPTConfig{}, fmt.Errorf("failed to unmarshal CPT config: %w", err)
	}

	validRanges, err := toRanges(raw.ValidRanges)
	if err != nil {
		return CPTConfig{}, fmt.Errorf("valid_ranges: %w", err)
	}
	invalidRanges, err := toRanges(raw.InvalidRanges)
	if err != nil {
		return CPTConfig{}, fmt.Errorf("invalid_ranges: %w", err)
	}

	cfg := CPTConfig{
		ValidCodes:    normalizeCodes(raw.ValidCodes),
		InvalidCodes:  normalizeCodes(raw.InvalidCodes),
		ValidRanges:   validRanges,
		InvalidRanges: invalidRanges,
	}
	if len(cfg.ValidCodes) == 0 && len(cfg.InvalidCodes) == 0 && len(cfg.ValidRanges) == 0 {
		return CPTConfig{}, errors.New("CPT config defines no codes or ranges")
	}
	return cfg, nil
}

// LoadCPTConfig reads the CPT configuration, falling back to the built-in
// lists with a single warning when the file is missing or malformed.
func LoadCPTConfig(path string, logger *zap.Logger) CPTConfig {
	if path == "" {
		return DefaultCPTConfig()
	}
	cfg, err := ParseCPTConfig(path)
	if err != nil {
		logger.Warn("Using built-in CPT rules",
			zap.String("path", path),
			zap.Error(err))
		return DefaultCPTConfig()
	}
	logger.Debug("Loaded CPT rules",
		zap.String("path", path),
		zap.Int("valid_codes", len(cfg.ValidCodes)),
		zap.Int("invalid_codes", len(cfg.InvalidCodes)))
	return cfg
}

func toRanges(pairs [][]int) ([]Range, error) {
	ranges := make([]Range, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("range %v must have exactly two bounds", pair)
		}
		if pair[0] > pair[1] {
			return nil, fmt.Errorf("range %v has low bound above high bound", pair)
		}
		ranges = append(ranges, Range{Low: pair[0], High: pair[1]})
	}
	return ranges, nil
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			out = append(out, code)
		}
	}
	return out
}
