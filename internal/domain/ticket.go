package domain

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// TicketPayload is the data encoded into a rendered ticket.
type TicketPayload struct {
	TicketID         string             `json:"ticket_id"`
	EventID          string             `json:"event_id"`
	EventName        string             `json:"event_name"`
	ParticipantID    string             `json:"participant_id"`
	ParticipantName  string             `json:"participant_name"`
	ParticipantEmail string             `json:"participant_email"`
	RegistrationDate time.Time          `json:"registration_date"`
	Status           RegistrationStatus `json:"status"`
}

// TicketRenderer renders a ticket payload into an opaque image or URL.
// Rendering is best-effort: callers log failures and carry on.
type TicketRenderer interface {
	Render(ctx context.Context, payload *TicketPayload) (string, error)
}

// TicketIDGenerator produces short unique human-facing ticket identifiers.
type TicketIDGenerator interface {
	Generate() (string, error)
}

const ticketIDLength = 10

// Unambiguous alphabet: no 0/O, 1/I/L.
var ticketIDAlphabet = []rune("ABCDEFGHJKMNPQRSTUVWXYZ23456789")

type randomTicketIDGenerator struct{}

// NewTicketIDGenerator returns a generator producing IDs like TKT-8F3KQ2MWXZ
// from crypto/rand. Uniqueness is enforced by the ticket_id constraint;
// callers retry on the rare collision.
func NewTicketIDGenerator() TicketIDGenerator {
	return randomTicketIDGenerator{}
}

func (randomTicketIDGenerator) Generate() (string, error) {
	b := make([]rune, ticketIDLength)
	max := big.NewInt(int64(len(ticketIDAlphabet)))
	for i := 0; i < ticketIDLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = ticketIDAlphabet[n.Int64()]
	}
	return "TKT-" + string(b), nil
}
