// Package slackhook announces newly submitted polls on a Slack channel
// through an incoming webhook.
package slackhook

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/pollbooth/pollbooth"
)

type Notifier struct {
	webhookURL string
	baseURL    string
	logger     zerolog.Logger
}

func New(webhookURL string, baseURL string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// QuestionHook returns a hook suitable for Server.AddQuestionHook, posting a
// link to the new poll. Submission must not fail because Slack is down, so
// webhook errors are logged and swallowed.
func (n *Notifier) QuestionHook() pollbooth.QuestionHook {
	return func(q *pollbooth.Question) error {
		msg := slack.WebhookMessage{
			Text: fmt.Sprintf("New poll by %s: %s (%s/questions/%v)", q.Author, q.QuestionText, n.baseURL, q.ID),
		}

		if err := slack.PostWebhook(n.webhookURL, &msg); err != nil {
			n.logger.Warn().Err(err).Msg("failed to post poll to Slack")
		}

		return nil
	}
}
