package booking

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
}

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSQueue sends booking events to an AWS/LocalStack SQS queue.
type SQSQueue struct {
	client   sqsAPI
	queueURL string
}

func NewSQSQueue(client *sqs.Client, queueURL string) *SQSQueue {
	if client == nil {
		panic("booking: SQS client cannot be nil")
	}
	return newSQSQueue(client, queueURL)
}

func newSQSQueue(client sqsAPI, queueURL string) *SQSQueue {
	if queueURL == "" {
		panic("booking: SQS queueURL cannot be empty")
	}
	return &SQSQueue{client: client, queueURL: queueURL}
}

func (q *SQSQueue) Send(ctx context.Context, body string) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("booking: failed to send SQS message: %w", err)
	}
	return nil
}

// MemoryQueue buffers event bodies in a channel. Local runs and tests read
// them back with Messages.
type MemoryQueue struct {
	ch chan string
}

func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{ch: make(chan string, buffer)}
}

// Send enqueues a body or blocks until ctx is done.
func (q *MemoryQueue) Send(ctx context.Context, body string) error {
	select {
	case q.ch <- body:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages exposes the receive side of the queue.
func (q *MemoryQueue) Messages() <-chan string {
	return q.ch
}
