// Package notify publishes gallery events to an SNS topic.
//
// Delivery is best-effort. The Notifier publishes once and returns any error;
// callers log it and carry on, so a broken topic never fails an upload or a
// feature request. With no topic configured every publish is a logged no-op.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/model"
)

// Publisher is the subset of *sns.Client the Notifier calls.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

var _ Publisher = (*sns.Client)(nil)

type Notifier struct {
	publisher Publisher
	topicARN  string
	logger    *slog.Logger
}

// New returns a Notifier. An empty topicARN disables delivery; publisher may
// then be nil.
func New(publisher Publisher, topicARN string, logger *slog.Logger) *Notifier {
	return &Notifier{publisher: publisher, topicARN: topicARN, logger: logger}
}

// Enabled reports whether a topic is configured.
func (n *Notifier) Enabled() bool {
	return n.topicARN != "" && n.publisher != nil
}

// Send publishes one plain-text message. No retries.
func (n *Notifier) Send(ctx context.Context, subject, message string) error {
	if !n.Enabled() {
		n.logger.Warn("SNS_TOPIC_ARN not configured. Skipping notification.",
			slog.String("subject", subject))
		return nil
	}

	out, err := n.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: &n.topicARN,
		Subject:  &subject,
		Message:  &message,
	})
	if err != nil {
		return apperror.ChannelUnavailable(err)
	}

	attrs := []any{slog.String("subject", subject)}
	if out != nil && out.MessageId != nil {
		attrs = append(attrs, slog.String("message_id", *out.MessageId))
	}
	n.logger.Info("notification sent", attrs...)
	return nil
}

func (n *Notifier) MemeUploaded(ctx context.Context, meme *model.Meme) error {
	return n.Send(ctx, "🎨 New Meme Uploaded to AWS Meme Museum!", uploadedMessage(meme))
}

func (n *Notifier) MemeFeatured(ctx context.Context, meme *model.Meme) error {
	return n.Send(ctx, "⭐ Meme Featured in AWS Meme Museum!", featuredMessage(meme))
}

// Milestone announces that a meme reached a like count.
func (n *Notifier) Milestone(ctx context.Context, meme *model.Meme, milestone int64) error {
	return n.Send(ctx, fmt.Sprintf("🎉 Meme Reached %d Likes!", milestone), milestoneMessage(meme, milestone))
}

func tagList(tags []string) string {
	if len(tags) == 0 {
		return "None"
	}
	return strings.Join(tags, ", ")
}

func uploadedMessage(m *model.Meme) string {
	uploaded := time.UnixMilli(m.CreatedAt).UTC().Format("2006-01-02 15:04:05 MST")
	return fmt.Sprintf(`A new meme has been uploaded to the AWS Meme Museum!

Title: %s
Author: %s
Description: %s
Tags: %s
Uploaded: %s

Check it out at the AWS Meme Museum!`, m.Title, m.Author, m.Description, tagList(m.Tags), uploaded)
}

func featuredMessage(m *model.Meme) string {
	return fmt.Sprintf(`A meme has been featured in the AWS Meme Museum!

Title: %s
Author: %s
Likes: %d
Tags: %s

This meme is now showcased in the featured section!`, m.Title, m.Author, m.Likes, tagList(m.Tags))
}

func milestoneMessage(m *model.Meme, milestone int64) string {
	return fmt.Sprintf(`Congratulations! A meme has reached %d likes!

Title: %s
Author: %s
Current Likes: %d
Tags: %s

This meme is trending in the AWS Meme Museum!`, milestone, m.Title, m.Author, m.Likes, tagList(m.Tags))
}
