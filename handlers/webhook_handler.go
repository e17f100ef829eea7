package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"snapChallengeAPI/internal/logger"
	"snapChallengeAPI/internal/user"
	"snapChallengeAPI/services"
)

const maxWebhookBytes = 64 << 10

type clerkWebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type WebhookHandler struct {
	userService *services.UserService
	wh          *svix.Webhook
}

// NewWebhookHandler verifies svix signatures with secret. Without a usable
// secret every delivery is refused with a 503.
func NewWebhookHandler(userService *services.UserService, secret string) *WebhookHandler {
	h := &WebhookHandler{userService: userService}
	if secret == "" {
		logger.Warn("Webhook: CLERK_WEBHOOK_SECRET not set, Clerk webhooks are disabled")
		return h
	}

	wh, err := svix.NewWebhook(secret)
	if err != nil {
		logger.Error("Webhook: invalid CLERK_WEBHOOK_SECRET: %v", err)
		return h
	}
	h.wh = wh
	return h
}

// HandleClerkWebhook keeps local users in step with Clerk.
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	if h.wh == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Webhooks are not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if err := h.wh.Verify(body, r.Header); err != nil {
		logger.Warn("Webhook: invalid signature: %v", err)
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event clerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch event.Type {
	case "user.created", "user.updated":
		err = h.handleUserUpserted(ctx, event.Data)
	case "user.deleted":
		err = h.handleUserDeleted(ctx, event.Data)
	default:
		logger.Debug("Webhook: ignoring event type %s", event.Type)
	}
	if err != nil {
		respondWithServiceError(w, err, "webhook "+event.Type)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) handleUserUpserted(ctx context.Context, data json.RawMessage) error {
	var userData user.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	_, err := h.userService.UpsertFromClerk(ctx, &userData)
	return err
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	err := h.userService.DeleteByClerkID(ctx, userData.ID)
	if errors.Is(err, services.ErrNotFound) {
		logger.Debug("Webhook: user with Clerk ID %s already gone", userData.ID)
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("Webhook: deleted user with Clerk ID %s", userData.ID)
	return nil
}
