// Package sms is the outbound SMS collaborator: a single send capability
// consumed by the one-time verification flow.
package sms

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"
)

// MaxMessageLength is the single-segment SMS limit.
const MaxMessageLength = 160

// Sender sends one SMS to an E.164 number.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

type snsSender struct {
	client   *sns.Client
	senderID string
	logger   *zap.Logger
}

// NewSNSSender creates an SNS-backed SMS sender
func NewSNSSender(client *sns.Client, senderID string, logger *zap.Logger) Sender {
	return &snsSender{client: client, senderID: senderID, logger: logger}
}

func (s *snsSender) Send(ctx context.Context, to, message string) error {
	if len(message) > MaxMessageLength {
		return fmt.Errorf("sms message exceeds %d characters (%d)", MaxMessageLength, len(message))
	}

	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}

	s.logger.Info("sms sent", zap.String("to", to))
	return nil
}
