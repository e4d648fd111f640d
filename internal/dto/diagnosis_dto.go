package dto

import "plantguard-be/pkg/remedy"

// PredictResponse is either a full diagnosis or, for "coming soon" models,
// just Status and ModelUsed.
type PredictResponse struct {
	Disease    string        `json:"disease,omitempty"`
	Confidence *float64      `json:"confidence,omitempty"`
	ModelUsed  string        `json:"model_used"`
	Severity   *float64      `json:"severity,omitempty"`
	Remedy     *remedy.Entry `json:"remedy,omitempty"`
	Status     string        `json:"status,omitempty"`
}

type RemedyResponse = remedy.Entry

type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Classifier string `json:"classifier,omitempty"`
	Device     string `json:"device,omitempty"`
}
