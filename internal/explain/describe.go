package explain

import (
	"fmt"

	"github.com/nao1215/phishscan/internal/features"
	"github.com/nao1215/phishscan/internal/model"
)

// Trigger thresholds for count and length features.
const (
	longURLLength        = 75
	deepPathSegments     = 4
	manySubdomains       = 3
	manyHostHyphens      = 2
	manyHostDots         = 4
	highDigitLetterRatio = 0.3
	heavyPercentEncoding = 3
	dominantPathRatio    = 0.75
	longHostnameLength   = 30
	longQueryLength      = 100
	manyQueryParams      = 5
	manyURLHyphens       = 4
	manyUnderscores      = 3
)

// signal describes when a feature counts as evidence and how to phrase it.
type signal struct {
	trigger  func(v float64) bool
	describe func(v float64) string
	severity model.Severity
}

func isSet(v float64) bool { return v >= 1 }

func above(limit float64) func(float64) bool {
	return func(v float64) bool { return v > limit }
}

func atLeast(limit float64) func(float64) bool {
	return func(v float64) bool { return v >= limit }
}

func text(s string) func(float64) string {
	return func(float64) string { return s }
}

// signals maps feature names to their trigger and description.
var signals = map[string]signal{
	features.URLLength: {
		trigger:  above(longURLLength),
		describe: func(v float64) string { return fmt.Sprintf("long URL (%d characters)", int(v)) },
		severity: model.SeverityLow,
	},
	features.PathSegmentCount: {
		trigger:  above(deepPathSegments),
		describe: func(v float64) string { return fmt.Sprintf("deeply nested path (%d segments)", int(v)) },
		severity: model.SeverityInfo,
	},
	features.SubdomainCount: {
		trigger:  atLeast(manySubdomains),
		describe: func(v float64) string { return fmt.Sprintf("many subdomains (%d)", int(v)) },
		severity: model.SeverityLow,
	},
	features.HostHyphenCount: {
		trigger:  atLeast(manyHostHyphens),
		describe: text("hyphenated hostname"),
		severity: model.SeverityLow,
	},
	features.HostDotCount: {
		trigger:  atLeast(manyHostDots),
		describe: text("many dots in hostname"),
		severity: model.SeverityLow,
	},
	features.DigitLetterRatio: {
		trigger:  above(highDigitLetterRatio),
		describe: text("high digit-to-letter ratio"),
		severity: model.SeverityInfo,
	},
	features.IPLiteral: {
		trigger:  isSet,
		describe: text("host is a raw IP address"),
		severity: model.SeverityHigh,
	},
	features.Punycode: {
		trigger:  isSet,
		describe: text("internationalized (punycode) hostname"),
		severity: model.SeverityHigh,
	},
	features.NonstandardPort: {
		trigger:  isSet,
		describe: text("non-standard port"),
		severity: model.SeverityMedium,
	},
	features.NoHTTPS: {
		trigger:  isSet,
		describe: text("connection is not HTTPS"),
		severity: model.SeverityMedium,
	},
	features.PercentEncodedCount: {
		trigger:  atLeast(heavyPercentEncoding),
		describe: text("heavy percent-encoding"),
		severity: model.SeverityLow,
	},
	features.AtCount: {
		trigger:  atLeast(1),
		describe: text("'@' in URL can hide the real host"),
		severity: model.SeverityHigh,
	},
	features.PathLengthRatio: {
		trigger:  above(dominantPathRatio),
		describe: text("path makes up most of the URL"),
		severity: model.SeverityInfo,
	},
	features.HostnameLength: {
		trigger:  above(longHostnameLength),
		describe: text("long hostname"),
		severity: model.SeverityLow,
	},
	features.QueryLength: {
		trigger:  above(longQueryLength),
		describe: text("long query string"),
		severity: model.SeverityInfo,
	},
	features.QueryParamCount: {
		trigger:  above(manyQueryParams),
		describe: text("many query parameters"),
		severity: model.SeverityInfo,
	},
	features.DoubleSlashInPath: {
		trigger:  isSet,
		describe: text("double slash in path (possible redirect)"),
		severity: model.SeverityMedium,
	},
	features.HTTPSInHostname: {
		trigger:  isSet,
		describe: text("'https' inside the hostname"),
		severity: model.SeverityMedium,
	},
	features.EmbeddedBrand: {
		trigger:  isSet,
		describe: text("brand name outside the registered domain"),
		severity: model.SeverityHigh,
	},
	features.URLHyphenCount: {
		trigger:  atLeast(manyURLHyphens),
		describe: func(v float64) string { return fmt.Sprintf("many hyphens in URL (%d)", int(v)) },
		severity: model.SeverityLow,
	},
	features.TildeSymbol: {
		trigger:  isSet,
		describe: text("'~' in URL"),
		severity: model.SeverityLow,
	},
	features.UnderscoreCount: {
		trigger:  atLeast(manyUnderscores),
		describe: text("many underscores in URL"),
		severity: model.SeverityInfo,
	},
	features.HasFragment: {
		trigger:  isSet,
		describe: text("URL carries a fragment"),
		severity: model.SeverityInfo,
	},
	features.RandomString: {
		trigger:  isSet,
		describe: text("long random-looking path segment"),
		severity: model.SeverityMedium,
	},
	features.DomainInSubdomains: {
		trigger:  isSet,
		describe: text("domain name repeated in subdomains"),
		severity: model.SeverityMedium,
	},
	features.DomainInPath: {
		trigger:  isSet,
		describe: text("domain name repeated in path"),
		severity: model.SeverityLow,
	},
}

func init() {
	for _, kw := range features.Keywords() {
		signals[features.KeywordFeature(kw)] = signal{
			trigger:  isSet,
			describe: text("suspicious keyword: " + kw),
			severity: model.SeverityMedium,
		}
	}
}

// Triggered reports whether the feature value counts as evidence.
// Unknown features never trigger.
func Triggered(name string, value float64) bool {
	s, ok := signals[name]
	return ok && s.trigger(value)
}

// Describe returns a short human-readable explanation of a feature value.
// Unknown features fall back to their name.
func Describe(name string, value float64) string {
	if s, ok := signals[name]; ok {
		return s.describe(value)
	}
	return name
}

// SeverityOf returns the coarse severity of a feature.
func SeverityOf(name string) model.Severity {
	if s, ok := signals[name]; ok {
		return s.severity
	}
	return model.SeverityInfo
}
