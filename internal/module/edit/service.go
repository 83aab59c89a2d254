package edit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/velo/server/internal/module/billing"
	"github.com/velo/server/internal/module/quota"
	"github.com/velo/server/internal/module/user"
	apperrors "github.com/velo/server/internal/shared/errors"
	"github.com/velo/server/internal/shared/metrics"
	"go.uber.org/zap"
)

// Service orchestrates the edit pipeline: account lookup, quota check,
// gateway call, persistence, audit and the quota increment. Billable
// side effects only happen after the gateway and storage both succeed.
type Service struct {
	users   user.Repository
	ledger  quota.Ledger
	gateway Gateway
	store   ResultStore
	audit   AuditLog
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new edit service.
func NewService(
	users user.Repository,
	ledger quota.Ledger,
	gateway Gateway,
	store ResultStore,
	audit AuditLog,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:   users,
		ledger:  ledger,
		gateway: gateway,
		store:   store,
		audit:   audit,
		metrics: m,
		logger:  logger,
	}
}

// ProcessEdit runs one edit for the authenticated user. On failure the
// returned response still carries timing and quota fields so clients
// always get the same shape.
func (s *Service) ProcessEdit(ctx context.Context, userID uuid.UUID, req *EditRequest) (*EditResponse, error) {
	start := time.Now()

	fail := func(err error) (*EditResponse, error) {
		resp := &EditResponse{
			Success:          false,
			ModelUsed:        "none",
			ProcessingTimeMS: time.Since(start).Milliseconds(),
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			resp.Error = appErr.Message
		} else {
			resp.Error = "internal error"
		}
		return resp, err
	}

	// The tier in the request is advisory, the account row decides
	// what the user is billed as.
	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.recordEdit("unknown", "unauthenticated", "none", start)
		return fail(apperrors.Unauthenticated("account not found"))
	}

	tier := account.Tier()
	if req.UserTier != "" && req.UserTier != string(tier) {
		s.logger.Warn("client tier mismatch",
			zap.String("user_id", userID.String()),
			zap.String("claimed", req.UserTier),
			zap.String("actual", string(tier)),
		)
	}

	policy := billing.ResolvePolicy(tier)

	ok, err := s.ledger.HasRemaining(ctx, userID, policy.MonthlyLimit)
	if err != nil {
		s.recordEdit(string(tier), "error", "none", start)
		return fail(apperrors.Internal("quota check failed", err))
	}
	if !ok {
		if s.metrics != nil {
			s.metrics.QuotaRejectionsTotal.Inc()
		}
		s.recordEdit(string(tier), "quota_exceeded", "none", start)
		return fail(apperrors.QuotaExceeded("Edit quota exceeded. Upgrade to Pro for unlimited edits."))
	}

	if req.ImageBase64 == "" {
		s.recordEdit(string(tier), "invalid", "none", start)
		return fail(apperrors.BadRequest("image payload is required"))
	}

	result, err := s.gateway.Edit(ctx, &GatewayRequest{
		Model:         policy.ModelName,
		Prompt:        req.CommandText,
		ImageBase64:   req.ImageBase64,
		OutputQuality: policy.Quality,
	})
	if err != nil {
		s.logger.Error("image gateway call failed",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("model", policy.ModelName),
		)
		s.recordEdit(string(tier), "gateway_error", policy.ModelName, start)
		return fail(apperrors.UpstreamGateway("", err))
	}

	imageData, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		s.recordEdit(string(tier), "gateway_error", policy.ModelName, start)
		return fail(apperrors.UpstreamGateway("", fmt.Errorf("%w: %v", ErrInvalidImage, err)))
	}

	key := fmt.Sprintf("%s/%d.jpg", userID, time.Now().UnixNano())
	imageURL, err := s.store.Put(ctx, key, imageData)
	if err != nil {
		s.logger.Error("failed to store edited image",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("key", key),
		)
		s.recordEdit(string(tier), "storage_error", policy.ModelName, start)
		return fail(apperrors.Storage("", err))
	}

	processingTime := time.Since(start).Milliseconds()

	// Best effort from here on: the user has their image, nothing
	// below may fail the request.
	s.audit.Record(ctx, &Edit{
		ID:               uuid.New(),
		UserID:           userID,
		CommandText:      req.CommandText,
		EditedImageURL:   imageURL,
		ModelUsed:        policy.ModelName,
		ProcessingTimeMS: processingTime,
		CostUSD:          policy.CostUSD,
	})

	remaining := billing.UnlimitedEdits
	count, err := s.ledger.Increment(ctx, userID)
	if err != nil {
		s.logger.Error("failed to increment edit count",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		if !policy.IsUnlimited() {
			// Conservative fallback: report from the last readable
			// count rather than failing the finished edit.
			used, readErr := s.ledger.Used(ctx, userID)
			if readErr != nil {
				used = policy.MonthlyLimit
			}
			remaining = quota.Remaining(policy.MonthlyLimit, used)
		}
	} else if !policy.IsUnlimited() {
		remaining = quota.Remaining(policy.MonthlyLimit, count)
	}

	if policy.Watermark {
		imageURL += "?watermark=true"
	}

	s.recordEdit(string(tier), "success", policy.ModelName, start)

	return &EditResponse{
		Success:          true,
		EditedImageURL:   imageURL,
		EditsRemaining:   remaining,
		Unlimited:        policy.IsUnlimited(),
		ModelUsed:        policy.ModelName,
		ProcessingTimeMS: processingTime,
	}, nil
}

// History returns the user's most recent edits.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]*Edit, error) {
	return s.audit.ListByUser(ctx, userID, limit)
}

func (s *Service) recordEdit(tier, status, model string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordEdit(tier, status, model, time.Since(start))
}
