// Package database provides SQLite-based storage of past verdicts.
//
// Every scored URL can be recorded in the predictions table together with
// its label, probability, reasons and feature vector. The history command
// reads it back to list earlier verdicts and to report when the verdict
// for a URL has changed between scans.
//
// The database is a single file (phishscan.db) in the XDG data directory,
// opened through the CGO-free modernc.org/sqlite driver in WAL mode.
package database
