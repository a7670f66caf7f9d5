// Package features converts a URL into a fixed-schema numeric feature vector.
//
// Extraction is a pure function of the input string: no network access, no
// clock, no randomness. The same function runs over training datasets and
// over live requests, so the schema order returned by Names is a contract
// with every classifier artifact. Changing the order or the names of the
// schema invalidates all trained models.
//
// # Schema
//
// Features are listed in the order they appear in every vector. Boolean
// features are encoded as 0 or 1.
//
//	url_length             rune count of the URL
//	path_segment_count     non-empty path segments
//	subdomain_count        host labels minus two, floor 0, 0 for IP hosts
//	host_hyphen_count      '-' characters in the host
//	host_dot_count         '.' characters in the host
//	digit_letter_ratio     digits divided by letters over the whole URL
//	ip_literal             host is an IPv4 or IPv6 literal
//	punycode               host carries an IDN (xn-- label or non-ASCII)
//	keyword_login          "login" appears in the URL
//	keyword_verify         "verify" appears in the URL
//	keyword_secure         "secure" appears in the URL
//	keyword_account        "account" appears in the URL
//	keyword_update         "update" appears in the URL
//	nonstandard_port       explicit port other than the scheme default
//	no_https               scheme is not https
//	percent_encoded_count  %XX escape sequences
//	at_count               '@' characters
//	path_length_ratio      path length divided by URL length
//	hostname_length        rune count of the host
//	query_length           length of the raw query
//	query_param_count      non-empty '&'-separated query components
//	double_slash_in_path   "//" occurs in the path
//	https_in_hostname      "https" occurs in the host
//	embedded_brand         a well-known brand appears outside the registrable domain
package features
