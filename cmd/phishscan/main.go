// Package main provides the entry point for the phishscan CLI.
//
// phishscan scores URLs as benign or malicious and explains the verdict
// with ranked, human-readable reasons.
//
// Usage:
//
//	phishscan score <url>
//	phishscan score --list <file>
//	phishscan serve --addr 127.0.0.1:5000
//
// See --help for all available options.
package main

func main() {
	Execute()
}
