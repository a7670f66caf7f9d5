// Package explain turns a feature vector into ranked, human-readable reasons.
//
// Every feature has a trigger condition (for example ip_literal == 1 or
// url_length > 75). Only triggered features produce reasons. When the
// classifier provides feature importances, triggered features are ranked by
// value x importance. Otherwise a fixed priority order is used: IP literal
// hosts, '@' in the URL, missing HTTPS, punycode hosts, the suspicious
// keywords, non-standard ports and embedded brands come first, followed by
// the remaining triggered features in schema order. Ties always break by
// schema order, so identical inputs produce identical explanations.
package explain
