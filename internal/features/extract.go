package features

import (
	"fmt"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/phishscan/internal/model"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/unicode/norm"
)

// defaultPorts maps each supported scheme to its implicit port.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// parsedURL holds the decomposed parts of a URL that features are computed from.
type parsedURL struct {
	// raw is the trimmed input.
	raw string

	// lower is raw in lower case, used for keyword matching.
	lower string

	scheme   string
	host     string
	port     string
	// path, rawQuery and fragment are spans of raw, not re-escaped.
	path     string
	rawQuery string
	fragment string

	// ip is true when host is an IP literal.
	ip bool
}

// Extract converts rawURL into a feature vector in schema order.
//
// It returns *MalformedURLError when the input is empty, cannot be parsed,
// has no host, or uses a scheme other than http or https. Any URL that
// passes those checks produces a vector, however unusual it is.
func Extract(rawURL string) (model.FeatureVector, error) {
	p, err := parse(rawURL)
	if err != nil {
		return nil, err
	}

	values := map[string]float64{
		URLLength:           float64(utf8.RuneCountInString(p.raw)),
		PathSegmentCount:    float64(pathSegments(p.path)),
		SubdomainCount:      float64(subdomainCount(p)),
		HostHyphenCount:     float64(strings.Count(p.host, "-")),
		HostDotCount:        float64(strings.Count(p.host, ".")),
		DigitLetterRatio:    digitLetterRatio(p.raw),
		IPLiteral:           boolValue(p.ip),
		Punycode:            boolValue(!p.ip && isIDN(p.host)),
		NonstandardPort:     boolValue(p.port != "" && p.port != defaultPorts[p.scheme]),
		NoHTTPS:             boolValue(p.scheme != "https"),
		PercentEncodedCount: float64(percentEncodings(p.raw)),
		AtCount:             float64(strings.Count(p.raw, "@")),
		PathLengthRatio:     ratio(utf8.RuneCountInString(p.path), utf8.RuneCountInString(p.raw)),
		HostnameLength:      float64(utf8.RuneCountInString(p.host)),
		QueryLength:         float64(utf8.RuneCountInString(p.rawQuery)),
		QueryParamCount:     float64(queryParams(p.rawQuery)),
		DoubleSlashInPath:   boolValue(strings.Contains(p.path, "//")),
		HTTPSInHostname:     boolValue(strings.Contains(p.host, "https")),
		EmbeddedBrand:       boolValue(hasEmbeddedBrand(p)),
		URLHyphenCount:      float64(strings.Count(p.raw, "-")),
		TildeSymbol:         boolValue(strings.Contains(p.raw, "~")),
		UnderscoreCount:     float64(strings.Count(p.raw, "_")),
		HasFragment:         boolValue(p.fragment != ""),
		RandomString:        boolValue(hasRandomSegment(p.path)),
		DomainInSubdomains:  boolValue(domainInSubdomains(p)),
		DomainInPath:        boolValue(domainInPath(p)),
	}
	for _, kw := range suspiciousKeywords {
		values[KeywordFeature(kw)] = boolValue(strings.Contains(p.lower, kw))
	}

	vec := make(model.FeatureVector, 0, len(schema))
	for _, name := range schema {
		vec = append(vec, model.Feature{Name: name, Value: values[name]})
	}
	return vec, nil
}

// parse validates rawURL and splits it into the parts features need.
func parse(rawURL string) (*parsedURL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, &MalformedURLError{URL: rawURL, Reason: "empty URL"}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, &MalformedURLError{URL: rawURL, Reason: "cannot parse", Err: err}
	}

	if u.Scheme == "" {
		return nil, &MalformedURLError{URL: rawURL, Reason: "missing scheme"}
	}
	scheme := strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[scheme]; !ok {
		return nil, &MalformedURLError{
			URL:    rawURL,
			Reason: fmt.Sprintf("scheme %q", scheme),
			Err:    ErrUnsupportedScheme,
		}
	}

	if u.Opaque != "" {
		return nil, &MalformedURLError{URL: rawURL, Reason: "missing host"}
	}
	host := u.Hostname()
	if host == "" {
		return nil, &MalformedURLError{URL: rawURL, Reason: "missing host"}
	}

	port := u.Port()
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 0 || n > 65535 {
			return nil, &MalformedURLError{URL: rawURL, Reason: fmt.Sprintf("invalid port %q", port)}
		}
		port = strconv.Itoa(n)
	}

	host = norm.NFC.String(strings.ToLower(host))
	_, ipErr := netip.ParseAddr(host)
	path, query, fragment := rawSpans(trimmed)

	return &parsedURL{
		raw:      trimmed,
		lower:    strings.ToLower(trimmed),
		scheme:   scheme,
		host:     host,
		port:     port,
		path:     path,
		rawQuery: query,
		fragment: fragment,
		ip:       ipErr == nil,
	}, nil
}

// rawSpans returns the path, query and fragment exactly as they appear in
// raw, so that length features share the representation of url_length.
// raw must already have passed parse's scheme and host checks.
func rawSpans(raw string) (path, query, fragment string) {
	rest := raw
	if i := strings.Index(rest, "#"); i >= 0 {
		rest, fragment = rest[:i], rest[i+1:]
	}
	if i := strings.Index(rest, "?"); i >= 0 {
		rest, query = rest[:i], rest[i+1:]
	}
	if i := strings.Index(rest, "//"); i >= 0 {
		rest = rest[i+2:]
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		path = rest[i:]
	}
	return path, query, fragment
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// pathSegments counts the non-empty segments of path.
func pathSegments(path string) int {
	n := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

// subdomainCount returns the number of labels beyond a two-label domain.
// IP literals have no subdomains.
func subdomainCount(p *parsedURL) int {
	if p.ip {
		return 0
	}
	labels := strings.Split(strings.TrimSuffix(p.host, "."), ".")
	return max(len(labels)-2, 0)
}

// digitLetterRatio divides the number of digits by the number of letters.
// When there are no letters the digit count is returned as is.
func digitLetterRatio(s string) float64 {
	var digits, letters int
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if letters == 0 {
		return float64(digits)
	}
	return float64(digits) / float64(letters)
}

// isIDN reports whether host is an internationalised domain name, either
// in Unicode form or as a punycode label. Undecodable xn-- labels count.
func isIDN(host string) bool {
	for i := 0; i < len(host); i++ {
		if host[i] >= utf8.RuneSelf {
			return true
		}
	}
	if !strings.Contains(host, "xn--") {
		return false
	}
	decoded, err := idna.Punycode.ToUnicode(host)
	if err != nil {
		return true
	}
	return decoded != host
}

// percentEncodings counts %XX escape sequences.
func percentEncodings(s string) int {
	n := 0
	for i := 0; i+2 < len(s); i++ {
		if s[i] == '%' && isHex(s[i+1]) && isHex(s[i+2]) {
			n++
			i += 2
		}
	}
	return n
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// queryParams counts the non-empty '&'-separated query components.
func queryParams(rawQuery string) int {
	if rawQuery == "" {
		return 0
	}
	n := 0
	for _, part := range strings.Split(rawQuery, "&") {
		if part != "" {
			n++
		}
	}
	return n
}

// splitHost returns the registrable domain (eTLD+1) of the host and the
// subdomain part in front of it, including its trailing dot. IP literals and
// hosts without a known suffix are returned whole with no subdomain.
func splitHost(p *parsedURL) (registrable, subdomain string) {
	host := strings.TrimSuffix(p.host, ".")
	if p.ip {
		return host, ""
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host, ""
	}
	return etld1, strings.TrimSuffix(host, etld1)
}

// minDomainLabel is the shortest domain name label the repetition features
// look for; shorter labels match too much by accident.
const minDomainLabel = 3

// domainLabel returns the name label of the registrable domain, e.g.
// "example" for shop.example.co.uk, or "" for IP hosts and short labels.
func domainLabel(p *parsedURL) string {
	if p.ip {
		return ""
	}
	registrable, _ := splitHost(p)
	label, _, _ := strings.Cut(registrable, ".")
	if len(label) < minDomainLabel {
		return ""
	}
	return label
}

// domainInSubdomains reports whether the domain name label is repeated as
// one of the subdomain labels, as in example.login.example.com.
func domainInSubdomains(p *parsedURL) bool {
	label := domainLabel(p)
	if label == "" {
		return false
	}
	_, subdomain := splitHost(p)
	for _, l := range strings.Split(strings.TrimSuffix(subdomain, "."), ".") {
		if l == label {
			return true
		}
	}
	return false
}

// domainInPath reports whether the domain name label occurs in the path.
func domainInPath(p *parsedURL) bool {
	label := domainLabel(p)
	return label != "" && strings.Contains(strings.ToLower(p.path), label)
}

// randomSegmentLen is the length above which a digit-free path segment
// counts as random-looking.
const randomSegmentLen = 15

// hasRandomSegment reports whether any path segment is longer than
// randomSegmentLen runes and contains no digit.
func hasRandomSegment(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if utf8.RuneCountInString(seg) <= randomSegmentLen {
			continue
		}
		if !strings.ContainsAny(seg, "0123456789") {
			return true
		}
	}
	return false
}

// hasEmbeddedBrand reports whether a brand name appears in the subdomain
// part of the host or in the path while the registrable domain itself does
// not carry that brand (e.g. paypal.com.account-check.io).
func hasEmbeddedBrand(p *parsedURL) bool {
	registrable, subdomain := splitHost(p)
	outside := subdomain + strings.ToLower(p.path)

	for _, brand := range brands {
		if strings.Contains(outside, brand) && !strings.Contains(registrable, brand) {
			return true
		}
	}
	return false
}
