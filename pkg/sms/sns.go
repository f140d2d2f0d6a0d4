package sms

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Sender delivers SMS messages to a phone number
type Sender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// SNSSender implements Sender via AWS SNS
type SNSSender struct {
	client   *sns.Client
	senderID string
}

// NewSNSSender builds an SNS-backed sender for the given region
func NewSNSSender(ctx context.Context, region, senderID string) (*SNSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SNSSender{client: sns.NewFromConfig(awsCfg), senderID: senderID}, nil
}

func (s *SNSSender) SendSMS(ctx context.Context, to, message string) error {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    strPtr("String"),
			StringValue: strPtr("Transactional"),
		},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    strPtr("String"),
			StringValue: &s.senderID,
		}
	}

	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       &to,
		Message:           &message,
		MessageAttributes: attrs,
	})
	return err
}

func strPtr(s string) *string { return &s }
