package features

import "slices"

// Feature names, in schema order.
const (
	URLLength           = "url_length"
	PathSegmentCount    = "path_segment_count"
	SubdomainCount      = "subdomain_count"
	HostHyphenCount     = "host_hyphen_count"
	HostDotCount        = "host_dot_count"
	DigitLetterRatio    = "digit_letter_ratio"
	IPLiteral           = "ip_literal"
	Punycode            = "punycode"
	KeywordLogin        = "keyword_login"
	KeywordVerify       = "keyword_verify"
	KeywordSecure       = "keyword_secure"
	KeywordAccount      = "keyword_account"
	KeywordUpdate       = "keyword_update"
	NonstandardPort     = "nonstandard_port"
	NoHTTPS             = "no_https"
	PercentEncodedCount = "percent_encoded_count"
	AtCount             = "at_count"
	PathLengthRatio     = "path_length_ratio"
	HostnameLength      = "hostname_length"
	QueryLength         = "query_length"
	QueryParamCount     = "query_param_count"
	DoubleSlashInPath   = "double_slash_in_path"
	HTTPSInHostname     = "https_in_hostname"
	EmbeddedBrand       = "embedded_brand"
	URLHyphenCount      = "url_hyphen_count"
	TildeSymbol         = "tilde_symbol"
	UnderscoreCount     = "underscore_count"
	HasFragment         = "has_fragment"
	RandomString        = "random_string"
	DomainInSubdomains  = "domain_in_subdomains"
	DomainInPath        = "domain_in_path"
)

// keywordPrefix prefixes every suspicious-keyword feature name.
const keywordPrefix = "keyword_"

// schema is the canonical feature order. It must never be mutated.
var schema = []string{
	URLLength,
	PathSegmentCount,
	SubdomainCount,
	HostHyphenCount,
	HostDotCount,
	DigitLetterRatio,
	IPLiteral,
	Punycode,
	KeywordLogin,
	KeywordVerify,
	KeywordSecure,
	KeywordAccount,
	KeywordUpdate,
	NonstandardPort,
	NoHTTPS,
	PercentEncodedCount,
	AtCount,
	PathLengthRatio,
	HostnameLength,
	QueryLength,
	QueryParamCount,
	DoubleSlashInPath,
	HTTPSInHostname,
	EmbeddedBrand,
	URLHyphenCount,
	TildeSymbol,
	UnderscoreCount,
	HasFragment,
	RandomString,
	DomainInSubdomains,
	DomainInPath,
}

// suspiciousKeywords are matched case-insensitively anywhere in the URL.
// Each keyword has its own boolean feature named keywordPrefix + keyword.
var suspiciousKeywords = []string{"login", "verify", "secure", "account", "update"}

// brands are names commonly impersonated in phishing URLs.
var brands = []string{"paypal", "google", "amazon", "microsoft", "apple"}

// Names returns a copy of the schema in canonical order.
func Names() []string {
	return slices.Clone(schema)
}

// Len returns the number of features in the schema.
func Len() int {
	return len(schema)
}

// Index returns the position of name in the schema, or -1.
func Index(name string) int {
	return slices.Index(schema, name)
}

// Keywords returns a copy of the suspicious keyword list.
func Keywords() []string {
	return slices.Clone(suspiciousKeywords)
}

// KeywordFeature returns the feature name for a suspicious keyword.
func KeywordFeature(keyword string) string {
	return keywordPrefix + keyword
}

// IsKeywordFeature reports whether name is a suspicious-keyword feature.
func IsKeywordFeature(name string) bool {
	return len(name) > len(keywordPrefix) && name[:len(keywordPrefix)] == keywordPrefix
}

// KeywordOf returns the keyword behind a keyword feature name.
// It returns the empty string for other features.
func KeywordOf(name string) string {
	if !IsKeywordFeature(name) {
		return ""
	}
	return name[len(keywordPrefix):]
}
