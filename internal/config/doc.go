// Package config provides configuration structures and utilities for phishscan.
// It defines the scoring, serving, history and report options shared by all
// commands, and loads the optional .phishscan YAML file.
package config
