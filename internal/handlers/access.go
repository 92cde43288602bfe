// internal/handlers/access.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/HenshawIII/chainfrenTivi/internal/gate"
	"github.com/HenshawIII/chainfrenTivi/internal/i18n"
	"github.com/HenshawIII/chainfrenTivi/internal/identity"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
	"github.com/HenshawIII/chainfrenTivi/internal/payments"
	"github.com/HenshawIII/chainfrenTivi/internal/services"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
)

// Cached gate sessions expire after sitting idle; their standing lives in
// the durable records, so a later request just rebuilds the controller.
const (
	gateIdleTTL    = 30 * time.Minute
	gateSweepEvery = 5 * time.Minute
)

type gateEntry struct {
	ctrl     *gate.Controller
	lastSeen time.Time
}

// AccessHandler is the HTTP face of the gate. Controllers are cached per
// (content, viewer) pair so the state machine survives across requests:
// Granted stays granted for the session and a second pay while one is
// running is rejected rather than doubled.
type AccessHandler struct {
	accessService *services.AccessService
	local         gate.LocalStore
	executor      payments.Executor
	verifier      *payments.Verifier
	mode          payments.Mode
	tokenDecimals int
	log           logrus.FieldLogger

	mu        sync.Mutex
	gates     map[string]*gateEntry
	lastSweep time.Time
}

func NewAccessHandler(
	accessService *services.AccessService,
	local gate.LocalStore,
	executor payments.Executor,
	verifier *payments.Verifier,
	mode payments.Mode,
	tokenDecimals int,
) *AccessHandler {
	return &AccessHandler{
		accessService: accessService,
		local:         local,
		executor:      executor,
		verifier:      verifier,
		mode:          mode,
		tokenDecimals: tokenDecimals,
		log:           logrus.StandardLogger(),
		gates:         make(map[string]*gateEntry),
	}
}

func parseContentKind(raw string) (models.ContentType, error) {
	switch raw {
	case "stream", "streams":
		return models.ContentTypeStream, nil
	case "video", "videos":
		return models.ContentTypeVideo, nil
	}
	return "", fmt.Errorf("unknown content kind %q", raw)
}

func (h *AccessHandler) viewerFromContext(c *gin.Context) identity.Identity {
	if wallet, ok := utils.GetWalletFromContext(c); ok {
		return identity.Wallet(wallet)
	}
	return identity.None()
}

func (h *AccessHandler) controllerFor(kind models.ContentType, contentID string, viewer identity.Identity) *gate.Controller {
	key := string(kind) + "|" + contentID + "|" + strings.ToLower(viewer.Address)
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.sweepLocked(now)

	if entry, ok := h.gates[key]; ok {
		entry.lastSeen = now
		return entry.ctrl
	}

	ctrl := gate.NewController(gate.Deps{
		Content:  h.accessService,
		Records:  h.accessService,
		Local:    h.local,
		Executor: h.executor,
		Mode:     h.mode,
		Log:      h.log,
	}, kind, contentID, viewer)
	h.gates[key] = &gateEntry{ctrl: ctrl, lastSeen: now}
	return ctrl
}

// sweepLocked drops controllers idle past the TTL. A controller with a
// payment in flight is never dropped.
func (h *AccessHandler) sweepLocked(now time.Time) {
	if now.Sub(h.lastSweep) < gateSweepEvery {
		return
	}
	h.lastSweep = now
	for key, entry := range h.gates {
		if now.Sub(entry.lastSeen) > gateIdleTTL && entry.ctrl.Idle() {
			delete(h.gates, key)
		}
	}
}

func (h *AccessHandler) respondStatus(c *gin.Context, status gate.Status) {
	lang := utils.GetLangFromContext(c)

	switch status.State {
	case gate.StateNotFound:
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyAccessContentNotFound))
	case gate.StatePaymentRequired:
		body := gin.H{"status": status}
		if status.PaymentError != nil {
			body["payment_error"] = string(status.PaymentError.Kind)
			body["message"] = paymentErrorMessage(lang, status.PaymentError.Kind)
		}
		utils.PaymentRequiredResponse(c, body)
	default:
		utils.SuccessResponse(c, gin.H{"status": status})
	}
}

func paymentErrorMessage(lang string, kind payments.ErrorKind) string {
	switch kind {
	case payments.ErrUserRejected:
		return i18n.T(lang, i18n.KeyPaymentRejected)
	case payments.ErrNoSigningCapability:
		return i18n.T(lang, i18n.KeyPaymentWalletNotReady)
	case payments.ErrInvalidRecipient:
		return i18n.T(lang, i18n.KeyPaymentInvalidRecipient)
	default:
		return i18n.T(lang, i18n.KeyPaymentFailed)
	}
}

// GET /access/:kind/:playbackId
func (h *AccessHandler) Resolve(c *gin.Context) {
	kind, err := parseContentKind(c.Param("kind"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	viewer := h.viewerFromContext(c)
	ctrl := h.controllerFor(kind, c.Param("playbackId"), viewer)

	status, err := ctrl.Resolve(c.Request.Context())
	if err != nil {
		if c.Request.Context().Err() != nil {
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	h.respondStatus(c, status)
}

// POST /access/:kind/:playbackId/pay
func (h *AccessHandler) Pay(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	kind, err := parseContentKind(c.Param("kind"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	viewer := h.viewerFromContext(c)
	if !viewer.Present() {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	ctrl := h.controllerFor(kind, c.Param("playbackId"), viewer)

	// Make sure the gate has settled before accepting a pay action; a
	// fresh controller starts in checking_access.
	if _, err := ctrl.Resolve(c.Request.Context()); err != nil {
		if c.Request.Context().Err() != nil {
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	status, err := ctrl.Pay(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, gate.ErrPaymentInFlight):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPaymentFailed))
		case errors.Is(err, gate.ErrNotPayable):
			// Already granted or not found; report the settled state.
			h.respondStatus(c, status)
		case errors.Is(err, gate.ErrIdentityUnavailable):
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		case c.Request.Context().Err() != nil:
			// Viewer went away mid-payment; nothing to report.
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	h.respondStatus(c, status)
}

type confirmRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
	Native bool   `json:"native,omitempty"`
}

// POST /access/:kind/:playbackId/confirm
//
// The viewer signed and broadcast the transfer themselves; the server
// verifies it on-chain before recording access. Replaying a tx hash that
// was already recorded still answers granted.
func (h *AccessHandler) Confirm(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	kind, err := parseContentKind(c.Param("kind"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	viewer := h.viewerFromContext(c)
	if !viewer.Present() {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	desc, err := h.accessService.GetContent(c.Request.Context(), kind, c.Param("playbackId"))
	if err != nil {
		if errors.Is(err, gate.ErrNotFound) {
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyAccessContentNotFound))
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	if desc.ViewMode == models.ViewModeFree {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "view_mode"), nil)
		return
	}

	if h.verifier == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "CHAIN_UNAVAILABLE",
			i18n.T(lang, i18n.KeyPaymentNotVerified), nil)
		return
	}

	mode := h.mode
	if req.Native {
		mode = payments.ModeNative
	}

	amountMinor, err := payments.ToMinorUnits(desc.Amount, h.tokenDecimalsFor(mode))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPaymentInvalidAmount), nil)
		return
	}

	if err := h.verifier.Confirm(c.Request.Context(), req.TxHash,
		common.HexToAddress(viewer.Address), common.HexToAddress(desc.CreatorID),
		amountMinor, mode); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"tx_hash":    req.TxHash,
			"content_id": desc.ID,
		}).Warn("Payment confirmation failed")
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "PAYMENT_NOT_VERIFIED",
			i18n.T(lang, i18n.KeyPaymentNotVerified), err.Error())
		return
	}

	if err := h.accessService.RecordPayment(c.Request.Context(), *desc, viewer, req.TxHash, time.Now().UTC()); err != nil {
		if errors.Is(err, services.ErrTxAlreadyRecorded) {
			utils.ErrorResponse(c, http.StatusConflict, "TX_ALREADY_USED",
				i18n.T(lang, i18n.KeyPaymentNotVerified), nil)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	ctrl := h.controllerFor(kind, desc.ID, viewer)
	status, err := ctrl.Resolve(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	h.respondStatus(c, status)
}

type donateRequest struct {
	TxHash string  `json:"tx_hash" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Native bool    `json:"native,omitempty"`
}

// POST /access/:kind/:playbackId/donate
func (h *AccessHandler) Donate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	kind, err := parseContentKind(c.Param("kind"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	viewer := h.viewerFromContext(c)
	if !viewer.Present() {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req donateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	desc, err := h.accessService.GetContent(c.Request.Context(), kind, c.Param("playbackId"))
	if err != nil {
		if errors.Is(err, gate.ErrNotFound) {
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyAccessContentNotFound))
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	if h.verifier != nil {
		mode := h.mode
		if req.Native {
			mode = payments.ModeNative
		}

		amountMinor, err := payments.ToMinorUnits(req.Amount, h.tokenDecimalsFor(mode))
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPaymentInvalidAmount), nil)
			return
		}

		if err := h.verifier.Confirm(c.Request.Context(), req.TxHash,
			common.HexToAddress(viewer.Address), common.HexToAddress(desc.CreatorID),
			amountMinor, mode); err != nil {
			utils.ErrorResponse(c, http.StatusUnprocessableEntity, "PAYMENT_NOT_VERIFIED",
				i18n.T(lang, i18n.KeyPaymentNotVerified), err.Error())
			return
		}
	}

	if err := h.accessService.RecordDonation(c.Request.Context(), *desc, viewer, req.TxHash, req.Amount, time.Now().UTC()); err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyPaymentSuccess)})
}

// GET /creators/:creatorId/access
func (h *AccessHandler) ChannelAccess(c *gin.Context) {
	viewer := h.viewerFromContext(c)

	summary, err := h.accessService.ChannelAccess(c.Request.Context(), c.Param("creatorId"), viewer, time.Now().UTC())
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, summary)
}

func (h *AccessHandler) tokenDecimalsFor(mode payments.Mode) int {
	if mode == payments.ModeNative {
		return 18
	}
	return h.tokenDecimals
}
