package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autofin/internal/core"
)

// ExportRequestMessage asks the worker to export the daily report of one
// user and range. The worker fetches the transactions itself.
type ExportRequestMessage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Start       core.Date `json:"start"`
	End         core.Date `json:"end"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewExportRequestMessage creates a request message for an export record.
func NewExportRequestMessage(rec core.ExportRecord) *ExportRequestMessage {
	return &ExportRequestMessage{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Start:       rec.Range.Start,
		End:         rec.Range.End,
		RequestedAt: rec.RequestedAt,
	}
}

// Range returns the requested period.
func (m *ExportRequestMessage) Range() core.DateRange {
	return core.DateRange{Start: m.Start, End: m.End}
}

// Validate rejects messages the worker could never process.
func (m *ExportRequestMessage) Validate() error {
	if m.ID == "" {
		return errors.New("missing export id")
	}
	if m.UserID == "" {
		return errors.New("missing user id")
	}
	if m.Start.IsZero() || m.End.IsZero() {
		return errors.New("missing range bounds")
	}
	return m.Range().Validate()
}

// ToJSON converts the message to JSON bytes
func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestMessageFromJSON decodes and validates a message.
func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid export request: %w", err)
	}
	return &msg, nil
}
