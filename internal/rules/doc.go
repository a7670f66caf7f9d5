// Package rules implements the high-confidence pre-check that can flag a
// URL as malicious before the classifier runs.
//
// A rule looks at the raw URL and its feature vector. The first rule that
// matches decides the verdict; when none match, scoring falls through to
// the classifier. Rules are disabled unless the configuration enables them.
package rules
