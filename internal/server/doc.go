// Package server exposes the scorer over HTTP.
//
// Routes:
//   - POST /predict: score {"url": "..."} and answer with the prediction
//     and its explanation. An optional ?threshold= overrides the decision
//     threshold for that request.
//   - GET /healthz: 200 once a model is loaded, 503 before.
//
// Every error answer has the body {"error": code, "message": text}.
package server
