package redisgateway

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const DefaultStream = "nftbridge:outbound"

type transport struct {
	rdb          *redis.Client
	stream       string
	codec        ports.MessageCodec
	numOfRetries int
}

// NewTransport returns a transport appending encoded messages to a redis stream consumed by the
// gateway relayer.
func NewTransport(
	rdb *redis.Client, stream string, codec ports.MessageCodec, numOfRetries int,
) (ports.GatewayTransport, error) {
	if rdb == nil {
		return nil, fmt.Errorf("missing redis client")
	}
	if codec == nil {
		return nil, fmt.Errorf("missing message codec")
	}
	if stream == "" {
		stream = DefaultStream
	}
	if numOfRetries <= 0 {
		numOfRetries = 1
	}
	return &transport{rdb, stream, codec, numOfRetries}, nil
}

func (t *transport) Send(ctx context.Context, msg domain.CrossChainMessage) error {
	payload, err := t.codec.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: t.stream,
		Values: map[string]interface{}{
			"id":                   msg.ID(),
			"destination_chain_id": msg.DestinationChainID,
			"message":              payload,
		},
	}

	for attempt := 0; attempt < t.numOfRetries; attempt++ {
		if err = t.rdb.XAdd(ctx, args).Err(); err == nil {
			return nil
		}
		log.WithError(err).Debugf("failed to append message to stream, attempt %d", attempt+1)

		select {
		case <-time.After(10 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf(
		"failed to append message to stream %s after %d attempts: %w",
		t.stream, t.numOfRetries, err,
	)
}

func (t *transport) Close() {
	// nolint:all
	t.rdb.Close()
}
