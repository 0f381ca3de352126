package submission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/domain/intake"
	"github.com/gever/intake/internal/platform/besteffort"
	"github.com/gever/intake/internal/platform/hipaa"
	"github.com/gever/intake/internal/platform/payment"
	"github.com/gever/intake/internal/platform/validate"
)

// Messages returned to the patient. Details stay in the audit log.
const (
	msgInvalidRequest    = "Invalid request"
	msgUnavailable       = "Service unavailable"
	msgInvalidPayment    = "Invalid payment"
	msgInvalidProduct    = "Invalid product selection"
	msgMissingInfo       = "Missing required information"
	msgCaptureFailed     = "Payment processing failed. Your visit was submitted — please contact support."
	msgSubmissionFailed  = "Visit submission failed"
	msgInternalError     = "Internal server error"
	debugEmailMismatch   = "email_mismatch"
	notAvailable         = "N/A"
	unknownVisitType     = "unknown"
	invalidProductMarker = "invalid"
)

// UsageRecorder counts a redemption of a discount code.
type UsageRecorder interface {
	IncrementUsage(ctx context.Context, code string) error
}

// Pipeline runs visit submissions.
type Pipeline struct {
	client   IntakeClient
	payments payment.Gateway
	logs     LogRepository
	usage    UsageRecorder
	runner   *besteffort.Runner
	screens  []intake.Screen
	logger   zerolog.Logger
	nowFunc  func() time.Time
}

// NewPipeline builds a Pipeline. payments may be nil when the flow has no
// payment step; a submission naming a hold is then rejected.
func NewPipeline(client IntakeClient, payments payment.Gateway, logs LogRepository, runner *besteffort.Runner, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		client:   client,
		payments: payments,
		logs:     logs,
		runner:   runner,
		screens:  intake.Screens(),
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// SetUsageRecorder enables discount usage counting on successful sales.
func (p *Pipeline) SetUsageRecorder(u UsageRecorder) {
	p.usage = u
}

// run is the state of one submission. entry collects the audit fields as
// they become known; held is set once the hold is known to belong to
// this patient and must be settled before returning.
type run struct {
	ctx   context.Context
	entry LogEntry
	held  bool
}

// Submit runs one submission to a terminal outcome. Exactly one audit
// entry is written, and a verified hold is always captured or released
// before Submit returns.
func (p *Pipeline) Submit(ctx context.Context, req VisitRequest) (out Outcome) {
	r := newRun(ctx, &req)
	defer func() {
		if rec := recover(); rec != nil {
			out = p.unexpected(r, fmt.Errorf("panic: %v", rec))
		}
	}()

	f := &req.FormData
	if err := req.Validate(); err != nil {
		problems := validate.Problems(err)
		p.logger.Warn().Strs("problems", problems).Msg("submission rejected by validation")
		return p.reject(r, http.StatusBadRequest, msgInvalidRequest, "Invalid request body", problems)
	}

	if !p.client.Configured() {
		if d, ok := intake.ProductByID(intake.DefaultPlanID); ok {
			r.entry.PlanDuration = d.Duration
		}
		return p.reject(r, http.StatusInternalServerError, msgUnavailable, "API not configured", nil)
	}

	if req.PaymentIntentID != "" {
		if o, ok := p.verifyHold(r, f.Email); !ok {
			return o
		}
	}

	r.entry.VisitType = VisitType
	product, ok := intake.ProductByID(req.planID())
	if !ok {
		r.entry.ProductID = invalidProductMarker
		return p.reject(r, http.StatusBadRequest, msgInvalidProduct, "Invalid product selection", nil)
	}
	r.entry.ProductID = product.ID
	r.entry.PlanDuration = product.Duration
	r.entry.PaymentAmount = product.TotalPrice - r.entry.DiscountAmount

	r.entry.MasterID = NewMasterID(p.nowFunc())
	f.sanitize()
	payload := BuildPayload(f, product, p.client.PharmacyID(), r.entry.MasterID, p.screens)
	if field := payload.FormObj.firstEmpty(); field != "" {
		p.logger.Warn().Str("master_id", r.entry.MasterID).Msg("submission missing a required field")
		return p.reject(r, http.StatusBadRequest, msgMissingInfo, "Missing required field: "+field, nil)
	}

	start := p.nowFunc()
	res, err := p.client.CreateVisit(ctx, payload)
	r.entry.DurationMs = p.nowFunc().Sub(start).Milliseconds()
	if err != nil {
		return p.unexpected(r, err)
	}

	r.entry.HTTPStatus = &res.HTTPStatus
	r.entry.BelugaResponse = res.Body
	if !res.Accepted() {
		return p.submissionFailed(r, res)
	}
	return p.accepted(r, res)
}

// Unreadable ends a submission whose body could not be decoded. req holds
// whatever was decoded before the failure. It is audited like any other
// unexpected error and no hold is touched.
func (p *Pipeline) Unreadable(ctx context.Context, req VisitRequest, err error) Outcome {
	return p.unexpected(newRun(ctx, &req), fmt.Errorf("decode request: %w", err))
}

func newRun(ctx context.Context, req *VisitRequest) *run {
	f := &req.FormData
	// Settlement and auditing must finish even if the client goes away.
	return &run{
		ctx: context.WithoutCancel(ctx),
		entry: LogEntry{
			MasterID:        notAvailable,
			ProductID:       notAvailable,
			MedicationType:  MedicationType,
			VisitType:       unknownVisitType,
			PaymentIntentID: req.PaymentIntentID,
			PatientName:     strings.TrimSpace(f.FirstName + " " + f.LastName),
			PatientEmail:    f.Email,
			PatientPhone:    f.Phone,
			PatientCity:     f.City,
		},
	}
}

// verifyHold loads the hold's metadata, checks that it was placed for the
// same email, and reads the pricing embedded when it was created.
func (p *Pipeline) verifyHold(r *run, email string) (Outcome, bool) {
	if p.payments == nil {
		p.logger.Error().Msg("submission names a payment hold but payments are not configured")
		return p.reject(r, http.StatusBadRequest, msgInvalidPayment, "Payment provider not configured", nil), false
	}
	auth, err := p.payments.Retrieve(r.ctx, r.entry.PaymentIntentID)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to verify payment hold ownership")
		return p.reject(r, http.StatusBadRequest, msgInvalidPayment, "Payment hold lookup failed", nil), false
	}

	md := auth.Metadata
	if holdEmail := md[payment.MetaCustomerEmail]; holdEmail != "" && email != "" && !strings.EqualFold(holdEmail, email) {
		p.logger.Warn().Str("email", hipaa.RedactEmail(email)).Msg("payment hold email mismatch")
		return p.reject(r, http.StatusBadRequest, msgInvalidRequest, "Payment hold email mismatch", []string{debugEmailMismatch}), false
	}

	r.held = true
	r.entry.AffiliateCode = md[payment.MetaAffiliateCode]
	if d, err := strconv.ParseFloat(md[payment.MetaDiscountAmount], 64); err == nil {
		r.entry.DiscountAmount = d
	}
	return Outcome{}, true
}

func (p *Pipeline) accepted(r *run, res *VisitResult) Outcome {
	visitID := res.VisitID()

	if r.held {
		// A failed capture is not retried or released; it needs a person.
		r.held = false
		if err := p.payments.Capture(r.ctx, r.entry.PaymentIntentID); err != nil {
			p.logger.Error().Err(err).Str("master_id", r.entry.MasterID).Msg("payment capture failed")
			p.save(r, StatusCaptureFailed, err.Error())
			return Outcome{
				Status:   StatusCaptureFailed,
				HTTPCode: http.StatusBadGateway,
				Message:  msgCaptureFailed,
				VisitID:  visitID,
				MasterID: r.entry.MasterID,
			}
		}
	}

	if code := r.entry.AffiliateCode; code != "" && p.usage != nil {
		p.runner.Go("affiliate usage", func(ctx context.Context) error {
			return p.usage.IncrementUsage(ctx, code)
		})
	}

	p.save(r, StatusSuccess, "")
	return Outcome{
		Status:   StatusSuccess,
		HTTPCode: http.StatusOK,
		VisitID:  visitID,
		MasterID: r.entry.MasterID,
	}
}

func (p *Pipeline) submissionFailed(r *run, res *VisitResult) Outcome {
	p.release(r)
	p.logger.Error().
		Str("email", hipaa.RedactEmail(r.entry.PatientEmail)).
		Str("master_id", r.entry.MasterID).
		Int("http_status", res.HTTPStatus).
		Msg("intake service rejected visit")

	msg := res.Error
	if msg == "" {
		msg = msgSubmissionFailed
	}
	p.save(r, StatusBelugaError, msg)
	return Outcome{Status: StatusBelugaError, HTTPCode: http.StatusBadGateway, Message: msgSubmissionFailed}
}

// unexpected handles any failure outside the modeled paths.
func (p *Pipeline) unexpected(r *run, err error) Outcome {
	master := r.entry.MasterID
	p.logger.Error().Err(err).Str("master_id", master).Msg("unexpected submission error")
	p.release(r)

	status := StatusInternalError
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		status = StatusNetworkError
	}
	r.entry.HTTPStatus = nil
	r.entry.BelugaResponse = nil
	r.entry.DurationMs = 0
	p.save(r, status, err.Error())
	return Outcome{Status: status, HTTPCode: http.StatusInternalServerError, Message: msgInternalError}
}

// reject ends a submission with a validation error.
func (p *Pipeline) reject(r *run, code int, msg, logMsg string, debug []string) Outcome {
	p.release(r)
	p.save(r, StatusValidationError, logMsg)
	return Outcome{Status: StatusValidationError, HTTPCode: code, Message: msg, Debug: debug}
}

// release cancels a verified hold. Failure is logged; the patient is not
// charged for an uncaptured hold, which the provider expires on its own.
func (p *Pipeline) release(r *run) {
	if !r.held {
		return
	}
	r.held = false
	if err := p.payments.Cancel(r.ctx, r.entry.PaymentIntentID); err != nil {
		p.logger.Error().Err(err).Str("master_id", r.entry.MasterID).Msg("payment cancel failed")
	}
}

func (p *Pipeline) save(r *run, status Status, errMsg string) {
	r.entry.Status = status
	r.entry.ErrorMessage = nil
	if errMsg != "" {
		r.entry.ErrorMessage = &errMsg
	}
	p.logs.Save(r.ctx, r.entry)
}
