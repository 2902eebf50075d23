package repository

import "context"

// Notifier delivers one-time codes to a phone number.
//
// Send returns (false, nil) when the recipient cannot accept the message,
// for instance an invalid number. Any other failure is returned as an error.
type Notifier interface {
	Send(ctx context.Context, phoneNumber, message string) (bool, error)
	// GenerateCode returns a 6 digit, zero padded numeric code.
	GenerateCode() (string, error)
}
