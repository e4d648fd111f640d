package bootstrap

import (
	"plantguard-be/internal/config"
	"plantguard-be/internal/controller"
	"plantguard-be/internal/pkg/logger"
	"plantguard-be/internal/repository/memory"
	"plantguard-be/internal/service"
	"plantguard-be/pkg/advisory"
	"plantguard-be/pkg/classifier"
	"plantguard-be/pkg/llm"
	"plantguard-be/pkg/llm/factory"
	"plantguard-be/pkg/remedy"
	"plantguard-be/pkg/vision"
)

type Container struct {
	Logger     logger.ILogger
	Classifier *classifier.Runtime

	// Controllers
	HealthController    controller.IHealthController
	DiagnosisController controller.IDiagnosisController
	ChatController      controller.IChatController
}

func NewContainer(cfg *config.Config, sysLogger logger.ILogger) *Container {
	// 1. Models & data, loaded once
	runtime := classifier.Load(classifier.Options{
		WeightsPath: cfg.Classifier.WeightsPath,
		Device:      classifier.Device(cfg.Classifier.Device),
		OnnxLibPath: cfg.Classifier.OnnxLibPath,
	}, sysLogger)

	catalog := remedy.Load(cfg.Remedy.Path, sysLogger)
	estimator := vision.NewEstimator(sysLogger)

	// 2. LLM Provider based on Config
	llmProvider := newLLMProvider(cfg, sysLogger)
	generator := advisory.NewGenerator(llmProvider, sysLogger)
	advisoryRepo := memory.NewAdvisoryRepository(cfg.Ai.AdvisoryCacheTTL)

	// 3. Services
	diagnosisService := service.NewDiagnosisService(runtime, estimator, catalog, sysLogger)
	chatService := service.NewChatService(generator, advisoryRepo, sysLogger)

	// 4. Controllers
	return &Container{
		Logger:              sysLogger,
		Classifier:          runtime,
		HealthController:    controller.NewHealthController(cfg.App.Version, runtime),
		DiagnosisController: controller.NewDiagnosisController(diagnosisService),
		ChatController:      controller.NewChatController(chatService),
	}
}

// newLLMProvider returns nil when the provider cannot be built; advisories
// then fall back to canned text.
func newLLMProvider(cfg *config.Config, log logger.ILogger) llm.LLMProvider {
	params := factory.FromConfig(cfg)
	provider, err := factory.NewLLMProvider(params)
	if err != nil {
		log.Warn("bootstrap", "LLM provider unavailable, advisories will use fallback text", map[string]interface{}{
			"provider": cfg.Ai.LLMProvider,
			"error":    err.Error(),
		})
		return nil
	}
	log.Info("bootstrap", "Using LLM provider", map[string]interface{}{
		"provider": provider.Name(),
		"model":    params.Model,
	})
	return provider
}

// Close releases the classifier backend.
func (c *Container) Close() error {
	return c.Classifier.Close()
}
