package email

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ietf-tools/datatracker/internal/config"
	"github.com/ietf-tools/datatracker/internal/logging"
)

const (
	sesMaxRetries     = 3
	sesBaseRetryDelay = time.Second
)

// SendEmailAPI is the SES v2 operation used by SESSender.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures an SESSender. Static credentials are optional; the
// default AWS credential chain is used without them.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// SESSender delivers raw messages through Amazon SES v2.
type SESSender struct {
	client     SendEmailAPI
	retryDelay time.Duration
	logger     *logging.Logger
}

// NewSESSender loads AWS configuration and returns an SESSender.
func NewSESSender(ctx context.Context, cfg SESConfig) (*SESSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESSenderWithClient(sesv2.NewFromConfig(awsCfg)), nil
}

// NewSESSenderWithClient wraps an existing SES client.
func NewSESSenderWithClient(client SendEmailAPI) *SESSender {
	return &SESSender{
		client:     client,
		retryDelay: sesBaseRetryDelay,
		logger:     logging.With("component", "mail"),
	}
}

// Send submits msg.Raw, retrying transient failures with exponential backoff.
func (s *SESSender) Send(ctx context.Context, msg *Message) error {
	input := &sesv2.SendEmailInput{
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: msg.Raw},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= sesMaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		out, err := s.client.SendEmail(ctx, input)
		if err == nil {
			if out != nil && out.MessageId != nil {
				s.logger.Debug("mail sent", "ses_message_id", *out.MessageId, "subject", msg.Subject)
			}
			return nil
		}
		lastErr = err
		s.logger.Warn("SES send failed", "attempt", attempt, "error", err)
	}

	return fmt.Errorf("SES send failed after %d retries: %w", sesMaxRetries, lastErr)
}

// Name returns "ses".
func (s *SESSender) Name() string {
	return config.MailBackendSES
}
