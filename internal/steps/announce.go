// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/model"
	"github.com/relkit/relkit/internal/release"
)

// webhookTimeout bounds a single webhook request.
const webhookTimeout = 30 * time.Second

type (
	// HTTPDoer sends webhook requests.
	HTTPDoer interface {
		Do(req *http.Request) (*http.Response, error)
	}

	// Announce posts the release message to every selected webhook.
	Announce struct {
		rc     *release.Context
		client HTTPDoer
	}

	webhookPayload struct {
		Text string `json:"text"`
	}
)

// NewAnnounce creates the announce step. A nil client uses an http.Client
// with a request timeout.
func NewAnnounce(rc *release.Context, client HTTPDoer) *Announce {
	if client == nil {
		client = &http.Client{Timeout: webhookTimeout}
	}
	return &Announce{rc: rc, client: client}
}

func (s *Announce) Command() string { return AnnounceCommand }

func (s *Announce) Invoke(ctx context.Context) error {
	m := s.rc.Model()
	log := s.rc.Log()
	filter := s.rc.AnnouncerFilter()

	announced := 0
	for _, w := range m.Announce.Webhooks {
		if !w.IsEnabled() || !filter.Matches(w.Name) {
			log.Debug("announcer skipped", "announcer", w.Name)
			continue
		}
		msg := m.Expand(w.Message, nil)
		if s.rc.DryRun() {
			log.Info("would announce", "announcer", w.Name, "message", msg)
			continue
		}
		if err := s.post(ctx, w, msg); err != nil {
			return issue.NewErrorContext().
				WithOperation("announce release").
				WithResource(w.Name).
				WithIssue(issue.AnnounceFailedId).
				WithSuggestion("Check the webhook URL and headers").
				Wrap(err).
				BuildError()
		}
		s.rc.AddOutput(AnnounceCommand, w.Name)
		log.Info("announced", "announcer", w.Name)
		announced++
	}
	if announced == 0 && !s.rc.DryRun() {
		log.Info("no announcers selected")
	}
	return nil
}

func (s *Announce) post(ctx context.Context, w model.WebhookAnnouncer, msg string) error {
	body, err := json.Marshal(webhookPayload{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
