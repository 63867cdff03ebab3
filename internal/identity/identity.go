// Package identity issues registration IDs and the payloads embedded in
// participant QR codes.
package identity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrMalformedPayload is returned when a scanned payload carries no usable
// registration ID at all.
var ErrMalformedPayload = errors.New("malformed payload: no registration id")

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Payload is the structured data embedded in a participant QR code.
type Payload struct {
	RegistrationID string    `json:"registrationId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewRegistrationID builds an ID of the form <PREFIX>-<unixMillis>-<RAND5>.
// The 5-character suffix is drawn from uppercase base-36. Collisions are
// improbable but not impossible; callers should retry on a duplicate-key
// insert.
func NewRegistrationID(prefix string) string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix)
}

// Encode serializes a payload to the JSON form stored inside the QR code.
func Encode(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a scanned payload. Non-JSON input is treated as a bare
// registration ID so plain-text codes and manual entry still resolve;
// ErrMalformedPayload is only returned when the input is blank.
func Decode(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, ErrMalformedPayload
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err == nil && p.RegistrationID != "" {
		return p, nil
	}
	return Payload{RegistrationID: raw}, nil
}

// QRDataURL renders the payload string as a PNG QR code and returns it as a
// base64 data URL, ready for an <img> tag.
func QRDataURL(data string) (string, error) {
	png, err := qrcode.Encode(data, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
