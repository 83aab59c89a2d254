package edit

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velo/server/internal/module/billing"
	"github.com/velo/server/internal/module/quota"
	"github.com/velo/server/internal/module/user"
	apperrors "github.com/velo/server/internal/shared/errors"
	"go.uber.org/zap"
)

type stubUsers struct {
	user *user.User
	err  error
}

func (s *stubUsers) Create(context.Context, *user.User) error    { return nil }
func (s *stubUsers) Update(context.Context, *user.User) error    { return nil }
func (s *stubUsers) SoftDelete(context.Context, uuid.UUID) error { return nil }
func (s *stubUsers) GetByEmail(context.Context, string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}
func (s *stubUsers) GetByOAuth(context.Context, string, string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}
func (s *stubUsers) UpdateTier(context.Context, uuid.UUID, billing.Tier) error { return nil }
func (s *stubUsers) UpdateTierByStripeCustomer(context.Context, string, billing.Tier) error {
	return nil
}
func (s *stubUsers) GetByID(context.Context, uuid.UUID) (*user.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubLedger struct {
	used       int
	hasErr     error
	incErr     error
	increments int
	countAfter int
}

func (s *stubLedger) Used(context.Context, uuid.UUID) (int, error) {
	return s.used, nil
}

func (s *stubLedger) HasRemaining(_ context.Context, _ uuid.UUID, limit int) (bool, error) {
	if s.hasErr != nil {
		return false, s.hasErr
	}
	if limit < 0 {
		return true, nil
	}
	return s.used < limit, nil
}

func (s *stubLedger) Increment(context.Context, uuid.UUID) (int, error) {
	if s.incErr != nil {
		return 0, s.incErr
	}
	s.increments++
	s.countAfter = s.used + s.increments
	return s.countAfter, nil
}

type stubGateway struct {
	result  *GatewayResult
	err     error
	calls   int
	lastReq *GatewayRequest
}

func (s *stubGateway) Edit(_ context.Context, req *GatewayRequest) (*GatewayResult, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubStore struct {
	url     string
	err     error
	calls   int
	lastKey string
}

func (s *stubStore) Put(_ context.Context, key string, _ []byte) (string, error) {
	s.calls++
	s.lastKey = key
	if s.err != nil {
		return "", s.err
	}
	return s.url + "/" + key, nil
}

type stubAudit struct {
	records []*Edit
}

func (s *stubAudit) Record(_ context.Context, e *Edit) {
	s.records = append(s.records, e)
}

func (s *stubAudit) ListByUser(context.Context, uuid.UUID, int) ([]*Edit, error) {
	return s.records, nil
}

type fixture struct {
	svc     *Service
	users   *stubUsers
	ledger  *stubLedger
	gateway *stubGateway
	store   *stubStore
	audit   *stubAudit
	userID  uuid.UUID
}

func validImage() string {
	return base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
}

func newFixture(tier billing.Tier) *fixture {
	id := uuid.New()
	f := &fixture{
		users: &stubUsers{user: &user.User{
			ID:               id,
			Email:            "edit@example.com",
			SubscriptionTier: tier,
			EditsMonthStart:  time.Now(),
		}},
		ledger:  &stubLedger{},
		gateway: &stubGateway{result: &GatewayResult{ImageBase64: validImage()}},
		store:   &stubStore{url: "https://cdn.velo.app"},
		audit:   &stubAudit{},
		userID:  id,
	}
	f.svc = NewService(f.users, f.ledger, f.gateway, f.store, f.audit, nil, zap.NewNop())
	return f
}

func (f *fixture) process(t *testing.T, req *EditRequest) (*EditResponse, error) {
	t.Helper()
	if req == nil {
		req = &EditRequest{CommandText: "make the sky dramatic", ImageBase64: validImage()}
	}
	return f.svc.ProcessEdit(context.Background(), f.userID, req)
}

func TestProcessEdit_FreeTierSuccess(t *testing.T) {
	f := newFixture(billing.TierFree)
	f.ledger.used = 2

	resp, err := f.process(t, nil)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, billing.ModelFlashImage, resp.ModelUsed)
	assert.Equal(t, "2k", f.gateway.lastReq.OutputQuality)
	assert.True(t, strings.HasSuffix(resp.EditedImageURL, "?watermark=true"))
	assert.Equal(t, quota.Remaining(billing.FreeMonthlyLimit, 3), resp.EditsRemaining) // 5 - (2+1)
	assert.False(t, resp.Unlimited)
	assert.Equal(t, 1, f.ledger.increments)
	require.Len(t, f.audit.records, 1)
	assert.Equal(t, 0.039, f.audit.records[0].CostUSD)
	// The stored URL is recorded without the watermark marker.
	assert.False(t, strings.Contains(f.audit.records[0].EditedImageURL, "watermark"))
}

func TestProcessEdit_BusinessTierSuccess(t *testing.T) {
	f := newFixture(billing.TierBusiness)

	resp, err := f.process(t, nil)
	require.NoError(t, err)

	assert.Equal(t, billing.ModelProImage, resp.ModelUsed)
	assert.Equal(t, "4k", f.gateway.lastReq.OutputQuality)
	assert.False(t, strings.Contains(resp.EditedImageURL, "watermark"))
	assert.True(t, resp.Unlimited)
	assert.Equal(t, billing.UnlimitedEdits, resp.EditsRemaining)
	assert.Equal(t, 1, f.ledger.increments)
}

func TestProcessEdit_LastFreeEdit(t *testing.T) {
	f := newFixture(billing.TierFree)
	f.ledger.used = 4

	resp, err := f.process(t, nil)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.EditsRemaining)
	assert.Equal(t, 5, f.ledger.countAfter)
	assert.Equal(t, 1, f.ledger.increments)
}

func TestProcessEdit_QuotaExceeded(t *testing.T) {
	f := newFixture(billing.TierFree)
	f.ledger.used = 5

	resp, err := f.process(t, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "quota")
	assert.Equal(t, "none", resp.ModelUsed)

	// No billable work happened.
	assert.Zero(t, f.gateway.calls)
	assert.Zero(t, f.store.calls)
	assert.Zero(t, f.ledger.increments)
	assert.Empty(t, f.audit.records)
}

func TestProcessEdit_TierReDerivedFromAccount(t *testing.T) {
	f := newFixture(billing.TierFree)

	// A client claiming pro still gets the free tier treatment.
	resp, err := f.process(t, &EditRequest{
		CommandText: "remove background",
		ImageBase64: validImage(),
		UserTier:    "pro",
	})
	require.NoError(t, err)

	assert.Equal(t, billing.ModelFlashImage, resp.ModelUsed)
	assert.True(t, strings.HasSuffix(resp.EditedImageURL, "?watermark=true"))
	assert.False(t, resp.Unlimited)
}

func TestProcessEdit_GatewayFailure(t *testing.T) {
	f := newFixture(billing.TierFree)
	f.gateway.err = errors.New("upstream said: secret internal detail")

	resp, err := f.process(t, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamGateway)

	assert.False(t, resp.Success)
	// Upstream detail never leaks to the client.
	assert.NotContains(t, resp.Error, "secret internal detail")

	assert.Zero(t, f.store.calls)
	assert.Zero(t, f.ledger.increments)
	assert.Empty(t, f.audit.records)
}

func TestProcessEdit_StorageFailure(t *testing.T) {
	f := newFixture(billing.TierPro)
	f.store.err = errors.New("bucket unavailable")

	resp, err := f.process(t, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorage)

	assert.False(t, resp.Success)
	assert.Zero(t, f.ledger.increments)
	assert.Empty(t, f.audit.records)
}

func TestProcessEdit_InvalidGatewayImage(t *testing.T) {
	f := newFixture(billing.TierFree)
	f.gateway.result = &GatewayResult{ImageBase64: "not-base64!!!"}

	_, err := f.process(t, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamGateway)
	assert.Zero(t, f.store.calls)
}

func TestProcessEdit_IncrementFailureStillSucceeds(t *testing.T) {
	f := newFixture(billing.TierFree)
	f.ledger.used = 1
	f.ledger.incErr = errors.New("db down")

	resp, err := f.process(t, nil)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.EditedImageURL)
	// Remaining falls back to the pre-increment count.
	assert.Equal(t, 4, resp.EditsRemaining)
}

func TestProcessEdit_UnknownAccount(t *testing.T) {
	f := newFixture(billing.TierFree)
	f.users.err = user.ErrUserNotFound

	resp, err := f.process(t, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.False(t, resp.Success)
	assert.Zero(t, f.gateway.calls)
}

func TestProcessEdit_MissingImage(t *testing.T) {
	f := newFixture(billing.TierFree)

	_, err := f.process(t, &EditRequest{CommandText: "brighten", ImageBase64: ""})
	require.Error(t, err)
	assert.Zero(t, f.gateway.calls)
}

func TestProcessEdit_StorageKeyShape(t *testing.T) {
	f := newFixture(billing.TierPro)

	_, err := f.process(t, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(f.store.lastKey, f.userID.String()+"/"))
	assert.True(t, strings.HasSuffix(f.store.lastKey, ".jpg"))
}

func TestProcessEdit_UnknownTierFailsClosed(t *testing.T) {
	f := newFixture(billing.Tier("platinum"))
	f.ledger.used = 5

	// Unknown tiers are treated as free, so the quota applies.
	_, err := f.process(t, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
}
