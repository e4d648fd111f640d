package service

import (
	"context"
	"errors"

	"plantguard-be/internal/constant"
	"plantguard-be/internal/dto"
	"plantguard-be/internal/pkg/logger"
	"plantguard-be/internal/repository/memory"
	"plantguard-be/pkg/advisory"
	"plantguard-be/pkg/llm"
)

var ErrFollowUpLimit = errors.New(constant.FollowUpLimitMessage)

type AdvisoryGenerator interface {
	Generate(ctx context.Context, disease string, confidence, severity float64) advisory.Advisory
	FollowUp(ctx context.Context, transcript []llm.Message, question string) advisory.Answer
}

type AdvisoryCache interface {
	Get(key string) (advisory.Advisory, bool)
	Save(key string, adv advisory.Advisory)
}

type IChatService interface {
	Advisory(ctx context.Context, req *dto.AdvisoryRequest) *dto.AdvisoryResponse
	FollowUp(ctx context.Context, req *dto.FollowUpRequest) (*dto.FollowUpResponse, error)
}

type chatService struct {
	generator AdvisoryGenerator
	cache     AdvisoryCache
	log       logger.ILogger
}

// NewChatService wires the advisory generator. cache may be nil.
func NewChatService(generator AdvisoryGenerator, cache AdvisoryCache, log logger.ILogger) IChatService {
	return &chatService{
		generator: generator,
		cache:     cache,
		log:       log,
	}
}

func (s *chatService) Advisory(ctx context.Context, req *dto.AdvisoryRequest) *dto.AdvisoryResponse {
	confidence, severity := *req.Confidence, *req.Severity
	key := memory.AdvisoryKey(req.Disease, confidence, severity)

	if s.cache != nil {
		if adv, ok := s.cache.Get(key); ok {
			s.log.Debug("chat", "Advisory cache hit", map[string]interface{}{"key": key})
			return &adv
		}
	}

	adv := s.generator.Generate(ctx, req.Disease, confidence, severity)
	if s.cache != nil && !adv.Degraded {
		s.cache.Save(key, adv)
	}
	return &adv
}

func (s *chatService) FollowUp(ctx context.Context, req *dto.FollowUpRequest) (*dto.FollowUpResponse, error) {
	asked := CountFollowUps(req.History)
	if asked >= constant.MaxFollowUps {
		s.log.Info("chat", "Follow-up limit reached", map[string]interface{}{"asked": asked})
		return nil, ErrFollowUpLimit
	}

	transcript := make([]llm.Message, len(req.History))
	for i, m := range req.History {
		transcript[i] = llm.Message{Role: m.Role, Content: m.Content}
	}

	ans := s.generator.FollowUp(ctx, transcript, req.Question)
	return &ans, nil
}

// CountFollowUps returns how many real follow-up questions history already
// holds. User messages flagged is_seed_context are excluded; when none is
// flagged, the first user message is taken as the seed.
func CountFollowUps(history []dto.ChatMessage) int {
	users, seeds := 0, 0
	for _, m := range history {
		if m.Role != constant.ChatMessageRoleUser {
			continue
		}
		users++
		if m.IsSeedContext != nil && *m.IsSeedContext {
			seeds++
		}
	}

	if seeds == 0 && users > 0 {
		seeds = 1
	}
	return users - seeds
}
