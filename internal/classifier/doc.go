// Package classifier provides the pretrained models that turn a feature
// vector into a malicious probability.
//
// Two artifact kinds are supported:
//
//   - logistic: a linear model with an intercept and one coefficient per feature
//   - forest: an ensemble of decision trees whose leaf values are averaged
//
// Artifacts are read from JSON or YAML files with Load, or taken from the
// compiled-in default with Default. A Slot holds the active model for the
// lifetime of a process and reports ErrModelUnavailable until one is loaded.
package classifier
