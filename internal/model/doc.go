// Package model defines the core data structures shared across phishscan.
//
// This package contains the following main types:
//   - FeatureVector: The ordered, named numeric signals extracted from a URL
//   - PredictionResult: The verdict, probability and ranked reasons for one URL
//   - PredictResponse: The external JSON shape returned by the HTTP transport
//   - Summary: Aggregated counts over a batch of predictions
//
// Models live in their own package so that features, scoring, report and
// database can share them without import cycles.
package model
