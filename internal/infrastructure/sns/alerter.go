package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-rolegate/internal/config"
	"github.com/go-rolegate/internal/infrastructure/awsconf"
)

// SNS caps subjects at 100 characters.
const maxSubjectLen = 100

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Alerter publishes operator alerts to an SNS topic.
type Alerter struct {
	client   publisher
	topicARN string
	prefix   string
}

func NewAlerter(ctx context.Context, cfg *config.Config) (*Alerter, error) {
	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sns: %w", err)
	}
	return &Alerter{
		client:   sns.NewFromConfig(awsCfg),
		topicARN: cfg.SNSAlertTopicARN,
		prefix:   "[rolegate " + cfg.AppEnv + "] ",
	}, nil
}

func (a *Alerter) Alert(ctx context.Context, subject, message string) error {
	_, err := a.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject:  aws.String(truncate(a.prefix+subject, maxSubjectLen)),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
