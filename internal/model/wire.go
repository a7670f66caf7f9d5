package model

// PredictRequest is the body accepted by POST /predict.
type PredictRequest struct {
	URL string `json:"url"`
}

// Explanation is the explanation block of the external response.
type Explanation struct {
	// FeatureScores maps feature names to values, in schema order.
	FeatureScores FeatureVector `json:"feature_scores"`

	// Reasons are the reason messages in rank order.
	Reasons []string `json:"reasons"`
}

// PredictResponse is the external JSON shape of a prediction.
type PredictResponse struct {
	Prediction  Label       `json:"prediction"`
	Probability float64     `json:"probability"`
	Explanation Explanation `json:"explanation"`
}

// ErrorResponse is returned by the transport for every failed request.
// Code is machine-readable; Message is for humans.
type ErrorResponse struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// NewPredictResponse converts a PredictionResult into the external shape.
func NewPredictResponse(result *PredictionResult) *PredictResponse {
	reasons := result.ReasonMessages()
	return &PredictResponse{
		Prediction:  result.Label,
		Probability: result.Probability,
		Explanation: Explanation{
			FeatureScores: result.FeatureScores.Clone(),
			Reasons:       reasons,
		},
	}
}

// Result converts the external shape back into a PredictionResult.
// Fields that the external shape does not carry (ID, source, feature names
// of reasons) are left empty.
func (p *PredictResponse) Result(url string) *PredictionResult {
	reasons := make([]Reason, len(p.Explanation.Reasons))
	for i, msg := range p.Explanation.Reasons {
		reasons[i] = Reason{Message: msg}
	}
	return &PredictionResult{
		URL:           url,
		Label:         p.Prediction,
		Probability:   p.Probability,
		FeatureScores: p.Explanation.FeatureScores.Clone(),
		Reasons:       reasons,
	}
}
