package dto

import "plantguard-be/pkg/advisory"

type AdvisoryRequest struct {
	Disease    string   `json:"disease" validate:"required"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
	Severity   *float64 `json:"severity" validate:"required,gte=0,lte=100"`
}

type AdvisoryResponse = advisory.Advisory

// ChatMessage is one transcript turn. IsSeedContext marks the synthetic
// diagnosis message the client sends first.
type ChatMessage struct {
	Role          string `json:"role" validate:"required,oneof=user model"`
	Content       string `json:"content"`
	IsSeedContext *bool  `json:"is_seed_context,omitempty"`
}

type FollowUpRequest struct {
	History  []ChatMessage `json:"history" validate:"dive"`
	Question string        `json:"question" validate:"required"`
}

type FollowUpResponse = advisory.Answer
