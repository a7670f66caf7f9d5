package model

// Severity represents how strongly a single reason points towards a
// malicious verdict. It is used to order and colour reasons in reports.
type Severity int

const (
	// SeverityInfo marks weak structural signals.
	// Examples: long query strings, many path segments.
	SeverityInfo Severity = iota

	// SeverityLow marks signals that are common on benign sites too.
	// Examples: extra subdomains, hyphens in the host.
	SeverityLow

	// SeverityMedium marks signals frequently seen in phishing URLs.
	// Examples: suspicious keywords, missing HTTPS.
	SeverityMedium

	// SeverityHigh marks strong indicators of deception.
	// Examples: IP literal hosts, punycode hosts, userinfo '@' abuse.
	SeverityHigh
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}
