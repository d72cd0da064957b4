package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	httpcontext "github.com/warelock/warelock-auth/internal/api/http/context"
	"github.com/warelock/warelock-auth/internal/api/http/response"
	"github.com/warelock/warelock-auth/internal/logger"
	"github.com/warelock/warelock-auth/internal/service"
)

// TwoFactorService defines two-factor enrollment and verification operations.
type TwoFactorService interface {
	Setup(ctx context.Context, userID uuid.UUID) (*service.SetupResult, error)
	VerifySetup(ctx context.Context, userID uuid.UUID, code string) ([]string, error)
	VerifyByID(ctx context.Context, userID uuid.UUID, code string) (service.VerifyResult, error)
	Disable(ctx context.Context, userID uuid.UUID, password, code string) error
	RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, password string) ([]string, error)
}

// TwoFactor handles the 2FA endpoints.
type TwoFactor struct {
	twoFactorService TwoFactorService
	errors           *response.ErrorMapper
	logger           *logger.Logger
}

func NewTwoFactor(twoFactorService TwoFactorService, errors *response.ErrorMapper, logger *logger.Logger) *TwoFactor {
	return &TwoFactor{
		twoFactorService: twoFactorService,
		errors:           errors,
		logger:           logger,
	}
}

type setupResponse struct {
	Secret    string `json:"secret"`
	ManualKey string `json:"manualKey"`
	QRImage   string `json:"qrImage"`
	URI       string `json:"uri"`
}

// Setup handles GET /api/auth/2fa/setup (authenticated, email-verified).
func (h *TwoFactor) Setup(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpcontext.GetPrincipal(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "authentication_required", "authentication required")
		return
	}

	result, err := h.twoFactorService.Setup(r.Context(), principal.ID)
	if err != nil {
		h.errors.Write(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, setupResponse{
		Secret:    result.Secret,
		ManualKey: result.Secret,
		QRImage:   result.QRImage,
		URI:       result.ProvisioningURI,
	})
}

type verifySetupRequest struct {
	Token string `json:"token"`
}

type backupCodesResponse struct {
	BackupCodes []string `json:"backupCodes"`
}

// VerifySetup handles POST /api/auth/2fa/verify-setup. The backup codes in
// the response are the only plaintext copy that will ever exist.
func (h *TwoFactor) VerifySetup(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpcontext.GetPrincipal(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "authentication_required", "authentication required")
		return
	}

	var req verifySetupRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	if req.Token == "" {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	codes, err := h.twoFactorService.VerifySetup(r.Context(), principal.ID, req.Token)
	if err != nil {
		h.errors.Write(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, backupCodesResponse{BackupCodes: codes})
}

type verifyRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type verifyResponse struct {
	Verified             bool `json:"verified"`
	UsedBackupCode       bool `json:"usedBackupCode"`
	RemainingBackupCodes int  `json:"remainingBackupCodes"`
}

// Verify handles POST /api/auth/2fa/verify, the public mid-login check.
func (h *TwoFactor) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil || req.Token == "" {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "userId and token are required")
		return
	}

	result, err := h.twoFactorService.VerifyByID(r.Context(), userID, req.Token)
	if err != nil {
		h.errors.Write(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, verifyResponse{
		Verified:             result.Verified,
		UsedBackupCode:       result.UsedBackupCode,
		RemainingBackupCodes: result.RemainingBackupCodes,
	})
}

type disableRequest struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Disable handles POST /api/auth/2fa/disable.
func (h *TwoFactor) Disable(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpcontext.GetPrincipal(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "authentication_required", "authentication required")
		return
	}

	var req disableRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	if req.Password == "" || req.Token == "" {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "password and token are required")
		return
	}

	if err := h.twoFactorService.Disable(r.Context(), principal.ID, req.Password, req.Token); err != nil {
		h.errors.Write(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, nil)
}

type regenerateRequest struct {
	Password string `json:"password"`
}

// RegenerateBackupCodes handles POST /api/auth/2fa/regenerate-backup-codes.
func (h *TwoFactor) RegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpcontext.GetPrincipal(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "authentication_required", "authentication required")
		return
	}

	var req regenerateRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	if req.Password == "" {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "password is required")
		return
	}

	codes, err := h.twoFactorService.RegenerateBackupCodes(r.Context(), principal.ID, req.Password)
	if err != nil {
		h.errors.Write(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, backupCodesResponse{BackupCodes: codes})
}
