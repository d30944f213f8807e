package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/goliatone/go-webpush/internal/commands"
)

type fakeReader struct {
	mu       sync.Mutex
	messages []kafkago.Message
	cancel   context.CancelFunc
	closed   bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		f.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	m := f.messages[0]
	f.messages = f.messages[1:]
	return m, nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestConsumerDecodesAndContinuesOnErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{cancel: cancel, messages: []kafkago.Message{
		{Key: []byte("k1"), Value: []byte(`{"topic":"refresh_node_status"}`)},
		{Value: []byte(`not json`)},
		{Value: []byte(`{"_msgid":"m2","topic":"unknown"}`)},
		{Value: []byte(`{"_msgid":"m3","topic":"push_notification","payload":"hi"}`)},
	}}

	var handled []commands.Command
	handler := func(ctx context.Context, cmd commands.Command) (commands.Response, error) {
		handled = append(handled, cmd)
		if cmd.Topic == "unknown" {
			return commands.Response{CommandID: cmd.ID}, commands.ErrUnsupportedIntent
		}
		return commands.Response{CommandID: cmd.ID, Intent: cmd.Intent()}, nil
	}
	consumer, err := NewConsumerWithReader(reader, handler, nil)
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}

	if err := consumer.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(handled) != 3 {
		t.Fatalf("expected 3 handled commands, got %d", len(handled))
	}
	if handled[0].ID != "k1" {
		t.Fatalf("expected key as command id, got %q", handled[0].ID)
	}
	if handled[2].ID != "m3" {
		t.Fatalf("expected message id to win, got %q", handled[2].ID)
	}
	if err := consumer.Close(); err != nil || !reader.closed {
		t.Fatalf("expected reader closed")
	}
}

func TestNewConsumerRequiresHandler(t *testing.T) {
	if _, err := NewConsumerWithReader(&fakeReader{}, nil, nil); !errors.Is(err, ErrMissingHandler) {
		t.Fatalf("expected ErrMissingHandler, got %v", err)
	}
}

type flakyReader struct {
	errs  []error
	reads int
}

func (f *flakyReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	f.reads++
	if len(f.errs) == 0 {
		return kafkago.Message{}, io.EOF
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return kafkago.Message{}, err
}

func (f *flakyReader) Close() error { return nil }

func TestConsumerBacksOffAndStopsWhenReaderCloses(t *testing.T) {
	reader := &flakyReader{errs: []error{errors.New("broker down"), errors.New("broker down")}}
	consumer, err := NewConsumerWithReader(reader, func(ctx context.Context, cmd commands.Command) (commands.Response, error) {
		t.Fatalf("no message should be handled")
		return commands.Response{}, nil
	}, nil)
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}
	consumer.retryDelay = 20 * time.Millisecond

	start := time.Now()
	if err := consumer.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop on EOF, got %v", err)
	}
	if reader.reads != 3 {
		t.Fatalf("expected 3 reads, got %d", reader.reads)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("expected back off between failed reads, took %s", elapsed)
	}
}

func TestConsumerBackOffHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &flakyReader{errs: []error{errors.New("broker down")}}
	consumer, err := NewConsumerWithReader(reader, func(ctx context.Context, cmd commands.Command) (commands.Response, error) {
		return commands.Response{}, nil
	}, nil)
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}
	consumer.retryDelay = time.Hour

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := consumer.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
