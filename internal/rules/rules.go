package rules

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/nao1215/phishscan/internal/features"
	"github.com/nao1215/phishscan/internal/model"
)

// maxURLLength is the length above which a URL is flagged outright.
const maxURLLength = 75

// Input is what a rule inspects.
type Input struct {
	// URL is the raw URL as submitted.
	URL string

	// Features is the extracted vector for URL.
	Features model.FeatureVector
}

// Rule is a single pre-check.
type Rule interface {
	// Name returns a short identifier for the rule.
	Name() string

	// Match returns the reason for flagging in, or false when the rule
	// does not apply.
	Match(in *Input) (model.Reason, bool)
}

// Engine evaluates rules in registration order.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine with the given rules. With no arguments
// the default rule set is used.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		&atSymbolRule{},
		&longURLRule{limit: maxURLLength},
		&ipv4HostRule{},
	}
}

// Register appends a rule.
func (e *Engine) Register(r Rule) {
	e.rules = append(e.rules, r)
}

// Names returns the names of the registered rules.
func (e *Engine) Names() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate returns the reason from the first matching rule.
func (e *Engine) Evaluate(in *Input) (model.Reason, bool) {
	for _, r := range e.rules {
		if reason, ok := r.Match(in); ok {
			return reason, true
		}
	}
	return model.Reason{}, false
}

type atSymbolRule struct{}

func (r *atSymbolRule) Name() string { return "at_symbol" }

func (r *atSymbolRule) Match(in *Input) (model.Reason, bool) {
	if v, ok := in.Features.Get(features.AtCount); !ok || v < 1 {
		return model.Reason{}, false
	}
	return model.Reason{
		Feature:  features.AtCount,
		Message:  "URL contains '@', which can hide the real destination",
		Score:    1,
		Severity: model.SeverityHigh,
	}, true
}

type longURLRule struct {
	limit int
}

func (r *longURLRule) Name() string { return "long_url" }

func (r *longURLRule) Match(in *Input) (model.Reason, bool) {
	if v, ok := in.Features.Get(features.URLLength); !ok || v <= float64(r.limit) {
		return model.Reason{}, false
	}
	return model.Reason{
		Feature:  features.URLLength,
		Message:  "URL is unusually long",
		Score:    1,
		Severity: model.SeverityHigh,
	}, true
}

type ipv4HostRule struct{}

func (r *ipv4HostRule) Name() string { return "ipv4_host" }

func (r *ipv4HostRule) Match(in *Input) (model.Reason, bool) {
	u, err := url.Parse(strings.TrimSpace(in.URL))
	if err != nil {
		return model.Reason{}, false
	}
	addr, err := netip.ParseAddr(u.Hostname())
	if err != nil || !addr.Unmap().Is4() {
		return model.Reason{}, false
	}
	return model.Reason{
		Feature:  features.IPLiteral,
		Message:  "host is an IPv4 address",
		Score:    1,
		Severity: model.SeverityHigh,
	}, true
}
