package discourse

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const handleMailPath = "/admin/email/handle_mail"

type handleMailRequest struct {
	EmailEncoded string `json:"email_encoded"`
}

// buildSubscribeMessage synthesizes the inbound message that triggers
// account creation. The subject carries the submitted address and a
// timestamp so repeated submissions stay distinguishable in the forum's
// incoming-email log. Lines are CRLF-terminated, including the last.
func buildSubscribeMessage(from, to string, now time.Time) string {
	subject := fmt.Sprintf("subscribe %s %s", from, now.UTC().Format(time.RFC3339))
	lines := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"Date: " + now.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		"subscribe",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

// HandleMail submits a synthesized subscribe message to the mail-ingestion
// endpoint. Discourse processes it as if the address had emailed the forum,
// creating a staged user account when none exists.
func (c *Client) HandleMail(ctx context.Context, from, to string) error {
	msg := buildSubscribeMessage(from, to, time.Now())

	payload, err := json.Marshal(handleMailRequest{
		EmailEncoded: base64.StdEncoding.EncodeToString([]byte(msg)),
	})
	if err != nil {
		return fmt.Errorf("encode handle_mail payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, handleMailPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(req, handleMailPath); err != nil {
		return err
	}
	return nil
}
