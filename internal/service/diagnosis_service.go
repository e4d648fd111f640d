package service

import (
	"context"

	"plantguard-be/internal/dto"
	"plantguard-be/internal/pkg/logger"
	"plantguard-be/pkg/classifier"
	"plantguard-be/pkg/remedy"
)

type DiseaseClassifier interface {
	Predict(ctx context.Context, imageBytes []byte, modelKey string) (classifier.Result, error)
}

type SeverityEstimator interface {
	Estimate(imageBytes []byte) float64
}

type RemedyLookup interface {
	Lookup(label string) remedy.Entry
	Has(label string) bool
}

type IDiagnosisService interface {
	Predict(ctx context.Context, imageBytes []byte, modelKey string) (*dto.PredictResponse, error)
	GetRemedy(ctx context.Context, diseaseClass string) *dto.RemedyResponse
}

type diagnosisService struct {
	classifier DiseaseClassifier
	severity   SeverityEstimator
	remedies   RemedyLookup
	log        logger.ILogger
}

func NewDiagnosisService(c DiseaseClassifier, s SeverityEstimator, r RemedyLookup, log logger.ILogger) IDiagnosisService {
	return &diagnosisService{
		classifier: c,
		severity:   s,
		remedies:   r,
		log:        log,
	}
}

func (s *diagnosisService) Predict(ctx context.Context, imageBytes []byte, modelKey string) (*dto.PredictResponse, error) {
	res, err := s.classifier.Predict(ctx, imageBytes, modelKey)
	if err != nil {
		return nil, err
	}

	if res.IsPlaceholder() {
		return &dto.PredictResponse{Status: res.Status, ModelUsed: res.ModelUsed}, nil
	}

	severity := s.severity.Estimate(imageBytes)
	entry := s.remedies.Lookup(res.Disease)
	if !s.remedies.Has(res.Disease) {
		s.log.Warn("diagnosis", "No dedicated remedy, serving default", map[string]interface{}{
			"disease": res.Disease,
		})
	}
	confidence := res.Confidence

	s.log.Info("diagnosis", "Prediction complete", map[string]interface{}{
		"disease":    res.Disease,
		"confidence": confidence,
		"severity":   severity,
		"model_used": res.ModelUsed,
	})

	return &dto.PredictResponse{
		Disease:    res.Disease,
		Confidence: &confidence,
		ModelUsed:  res.ModelUsed,
		Severity:   &severity,
		Remedy:     &entry,
	}, nil
}

func (s *diagnosisService) GetRemedy(ctx context.Context, diseaseClass string) *dto.RemedyResponse {
	entry := s.remedies.Lookup(diseaseClass)
	return &entry
}
