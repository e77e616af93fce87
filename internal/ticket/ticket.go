// Package ticket renders the QR code a participant shows at the door.
// The payload is the participant's identity id and nothing else.
package ticket

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// ErrEmptyPayload is returned when there is no participant id to encode.
var ErrEmptyPayload = errors.New("ticket payload is empty")

// PNG encodes participantID as a PNG image of size×size pixels.
func PNG(participantID string, size int) ([]byte, error) {
	if participantID == "" {
		return nil, ErrEmptyPayload
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(participantID, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode ticket qr: %w", err)
	}
	return png, nil
}

// Terminal renders participantID as block characters for a terminal.
func Terminal(participantID string) (string, error) {
	if participantID == "" {
		return "", ErrEmptyPayload
	}
	q, err := qrcode.New(participantID, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode ticket qr: %w", err)
	}
	return q.ToSmallString(false), nil
}
