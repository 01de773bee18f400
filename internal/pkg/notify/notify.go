package notify

import "context"

// Sender delivers an HTML email.
type Sender interface {
	// Send delivers one message to a single recipient. Failures are returned
	// as is; callers decide how to surface them.
	Send(ctx context.Context, to, subject, htmlBody string) error
}
