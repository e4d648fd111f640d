package service

import (
	"context"
	"errors"
	"testing"

	"plantguard-be/internal/pkg/logger"
	"plantguard-be/pkg/classifier"
	"plantguard-be/pkg/remedy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubClassifier struct {
	result classifier.Result
	err    error
}

func (s *stubClassifier) Predict(_ context.Context, _ []byte, modelKey string) (classifier.Result, error) {
	return s.result, s.err
}

type countingSeverity struct {
	value float64
	calls int
}

func (c *countingSeverity) Estimate([]byte) float64 {
	c.calls++
	return c.value
}

func testCatalog() *remedy.Catalog {
	return remedy.New(map[string]remedy.Entry{
		"Tomato___Late_blight": {
			Disease:    "Tomato Late Blight",
			Commercial: remedy.Commercial{Product: "Mancozeb 75% WP", Dosage: "2.5 g/L", Notes: "n"},
			Jugaad:     remedy.Traditional{Recipe: "r", Frequency: "f", Notes: "n"},
		},
	})
}

func TestDiagnosisService_Predict(t *testing.T) {
	sev := &countingSeverity{value: 34.5}
	svc := NewDiagnosisService(
		&stubClassifier{result: classifier.Result{Disease: "Tomato___Late_blight", Confidence: 0.9132, ModelUsed: "general"}},
		sev, testCatalog(), logger.NewNopLogger(),
	)

	res, err := svc.Predict(context.Background(), []byte("img"), "general")
	require.NoError(t, err)

	assert.Equal(t, "Tomato___Late_blight", res.Disease)
	require.NotNil(t, res.Confidence)
	assert.Equal(t, 0.9132, *res.Confidence)
	require.NotNil(t, res.Severity)
	assert.Equal(t, 34.5, *res.Severity)
	require.NotNil(t, res.Remedy)
	assert.Equal(t, "Mancozeb 75% WP", res.Remedy.Commercial.Product)
	assert.Empty(t, res.Status)
	assert.Equal(t, 1, sev.calls)
}

func TestDiagnosisService_PlaceholderSkipsSeverityAndRemedy(t *testing.T) {
	sev := &countingSeverity{}
	svc := NewDiagnosisService(
		&stubClassifier{result: classifier.Result{Status: "soynet model coming soon — stay tuned.", ModelUsed: "soynet"}},
		sev, testCatalog(), logger.NewNopLogger(),
	)

	res, err := svc.Predict(context.Background(), []byte("img"), "soynet")
	require.NoError(t, err)

	assert.Equal(t, "soynet model coming soon — stay tuned.", res.Status)
	assert.Equal(t, "soynet", res.ModelUsed)
	assert.Nil(t, res.Confidence)
	assert.Nil(t, res.Severity)
	assert.Nil(t, res.Remedy)
	assert.Zero(t, sev.calls)
}

func TestDiagnosisService_UnknownLabelGetsDefaultRemedy(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewDiagnosisService(
		&stubClassifier{result: classifier.Result{Disease: "class_39", Confidence: 0.5, ModelUsed: "general"}},
		&countingSeverity{}, testCatalog(), logger.NewFromZap(zap.New(core)),
	)

	res, err := svc.Predict(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "class_39", res.Remedy.Disease)
	require.NotNil(t, res.Severity)
	assert.Zero(t, *res.Severity)

	warnings := logs.FilterMessage("No dedicated remedy, serving default").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, map[string]interface{}{"disease": "class_39"}, warnings[0].ContextMap()["details"])
}

func TestDiagnosisService_KnownLabelDoesNotWarn(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewDiagnosisService(
		&stubClassifier{result: classifier.Result{Disease: "Tomato___Late_blight", Confidence: 0.9, ModelUsed: "general"}},
		&countingSeverity{}, testCatalog(), logger.NewFromZap(zap.New(core)),
	)

	_, err := svc.Predict(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestDiagnosisService_ClassifierErrorPropagates(t *testing.T) {
	wrapped := errors.Join(classifier.ErrInvalidImage, errors.New("bad magic"))
	svc := NewDiagnosisService(&stubClassifier{err: wrapped}, &countingSeverity{}, testCatalog(), logger.NewNopLogger())

	_, err := svc.Predict(context.Background(), []byte("nope"), "general")
	assert.ErrorIs(t, err, classifier.ErrInvalidImage)
}

func TestDiagnosisService_DemoRuntime(t *testing.T) {
	rt := classifier.Load(classifier.Options{WeightsPath: "does/not/exist.safetensors"}, logger.NewNopLogger())
	svc := NewDiagnosisService(rt, &countingSeverity{value: 12.5}, testCatalog(), logger.NewNopLogger())

	res, err := svc.Predict(context.Background(), []byte("anything"), "general")
	require.NoError(t, err)
	assert.Equal(t, "Tomato___Late_blight", res.Disease)
	assert.Equal(t, 0.87, *res.Confidence)
	assert.Equal(t, "general (demo)", res.ModelUsed)
	assert.Equal(t, "Tomato Late Blight", res.Remedy.Disease)
}

func TestDiagnosisService_GetRemedy(t *testing.T) {
	svc := NewDiagnosisService(&stubClassifier{}, &countingSeverity{}, testCatalog(), logger.NewNopLogger())

	assert.Equal(t, "Tomato Late Blight", svc.GetRemedy(context.Background(), "Tomato___Late_blight").Disease)
	assert.Equal(t, "Mystery", svc.GetRemedy(context.Background(), "Mystery").Disease)
}
