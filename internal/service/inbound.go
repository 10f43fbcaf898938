package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/metrics"
	"github.com/leadflow/ingest-server/internal/model"
	redisclient "github.com/leadflow/ingest-server/internal/redis"
	"github.com/leadflow/ingest-server/internal/repository"
	"github.com/leadflow/ingest-server/internal/sse"
	"github.com/leadflow/ingest-server/internal/util"
)

// LeadEventType is the SSE event type carrying a newly created InboundCall.
const LeadEventType = "lead"

var listingIDPattern = regexp.MustCompile(`(?i)\(?\s*ID\s*:\s*(\d+)\s*\)?`)

// ExtractListingID returns the first "ID: <digits>" reference in text, or nil.
func ExtractListingID(text string) *int64 {
	match := listingIDPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// NormalizePhone reduces a sender address such as "381641234567@c.us" or
// "063 867 6663" to "+<digits>". It returns "" when the input has no digits.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "+" + b.String()
}

type LeadPublisher interface {
	Publish(ctx context.Context, topic string, event sse.Event) error
}

type InboundService struct {
	calls     repository.InboundCallRepository
	dedup     DedupStore
	dedupTTL  time.Duration
	publisher LeadPublisher
}

// NewInboundService creates the webhook message processor. dedup and
// publisher are optional.
func NewInboundService(
	calls repository.InboundCallRepository,
	dedup DedupStore,
	dedupTTL time.Duration,
	publisher LeadPublisher,
) *InboundService {
	return &InboundService{
		calls:     calls,
		dedup:     dedup,
		dedupTTL:  dedupTTL,
		publisher: publisher,
	}
}

// ProcessInboundBatch handles one gateway delivery. Failures of individual
// messages are logged and never abort the batch.
func (s *InboundService) ProcessInboundBatch(ctx context.Context, payload model.WebhookPayload) model.BatchResult {
	messages := payload.All()
	result := model.BatchResult{Processed: len(messages)}

	for _, msg := range messages {
		outcome := s.processMessage(ctx, msg)
		metrics.WebhookMessages.WithLabelValues(outcome).Inc()

		switch outcome {
		case metrics.OutcomeCreated:
			result.Created++
		case metrics.OutcomeFailed:
			result.Failed++
		default:
			result.Skipped++
		}
	}

	log.Info().
		Int("processed", result.Processed).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("inbound batch processed")

	return result
}

func (s *InboundService) processMessage(ctx context.Context, msg model.WebhookMessage) string {
	if msg.FromMe {
		return metrics.OutcomeFromMe
	}

	body := msg.Body()
	if strings.TrimSpace(body) == "" {
		return metrics.OutcomeEmpty
	}

	phone := NormalizePhone(msg.From)
	if phone == "" {
		log.Warn().Str("messageId", msg.ID).Str("from", msg.From).Msg("inbound message without sender digits skipped")
		return metrics.OutcomeNoSender
	}

	var dedupKey string
	if msg.ID != "" && s.dedup != nil {
		dedupKey = redisclient.WebhookMessageKey(msg.ID)
		if !claimOrAllow(ctx, s.dedup, dedupKey, s.dedupTTL) {
			log.Debug().Str("messageId", msg.ID).Msg("redelivered message skipped")
			return metrics.OutcomeDuplicate
		}
	}

	listingID := ExtractListingID(body)
	call, err := s.calls.Create(ctx, model.CreateInboundCallParams{
		Phone:            phone,
		ListingID:        listingID,
		RawText:          body,
		GatewayMessageID: optionalString(msg.ID),
		ChatID:           optionalString(msg.ChatID),
	})
	if err != nil {
		log.Error().Err(err).Str("messageId", msg.ID).Msg("failed to store inbound call")
		if dedupKey != "" {
			if relErr := s.dedup.Release(ctx, dedupKey); relErr != nil {
				log.Warn().Err(relErr).Str("key", dedupKey).Msg("failed to release message key")
			}
		}
		return metrics.OutcomeFailed
	}

	logEvt := log.Info().Int64("callId", call.ID).Str("phone", util.MaskPhone(call.Phone))
	if listingID != nil {
		logEvt = logEvt.Int64("listingId", *listingID)
	}
	logEvt.Msg("inbound lead created")

	s.publishLead(ctx, call)
	return metrics.OutcomeCreated
}

func (s *InboundService) publishLead(ctx context.Context, call *model.InboundCall) {
	if s.publisher == nil {
		return
	}
	event, err := sse.NewEvent(LeadEventType, call)
	if err != nil {
		log.Error().Err(err).Int64("callId", call.ID).Msg("failed to encode lead event")
		return
	}
	if err := s.publisher.Publish(ctx, redisclient.LeadsChannel, event); err != nil {
		log.Warn().Err(err).Int64("callId", call.ID).Msg("failed to publish lead event")
	}
}

// ListLeads returns recent inbound calls, newest first, with the total count.
func (s *InboundService) ListLeads(ctx context.Context, limit, offset int) ([]model.InboundCall, int, error) {
	calls, err := s.calls.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(fmt.Errorf("list leads: %w", err))
	}
	total, err := s.calls.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Database(fmt.Errorf("count leads: %w", err))
	}
	if calls == nil {
		calls = []model.InboundCall{}
	}
	return calls, total, nil
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
