// Package email delivers verification mail to new accounts.
package email

import "context"

// Sender delivers a verification token to a recipient address.
type Sender interface {
	SendVerification(ctx context.Context, recipient, token string) error
}
