// Package ticket implements the ticket rendering collaborator. The payload
// is encoded into an opaque URL the downstream QR imaging service resolves;
// the core never depends on how the image is produced.
package ticket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"campusevents/internal/domain"
)

type payloadRenderer struct {
	baseURL string
}

// NewPayloadRenderer returns a TicketRenderer that encodes the ticket payload
// as base64 JSON under baseURL, keyed by a fresh render reference.
func NewPayloadRenderer(baseURL string) domain.TicketRenderer {
	return &payloadRenderer{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (r *payloadRenderer) Render(ctx context.Context, payload *domain.TicketPayload) (string, error) {
	if payload == nil || payload.TicketID == "" {
		return "", fmt.Errorf("ticket payload is incomplete")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal ticket payload: %w", err)
	}
	ref := uuid.NewString()
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return fmt.Sprintf("%s/tickets/%s?d=%s", r.baseURL, ref, encoded), nil
}
