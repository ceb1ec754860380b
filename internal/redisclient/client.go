package redisclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hotel-portal/internal/realtime"
	"hotel-portal/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultBuffer is the per-subscriber queue length
const DefaultBuffer = 32

// Client is the Redis pub/sub transport of the live board
type Client struct {
	rdb    *redis.Client
	buffer int
	logger *zap.Logger
}

var _ realtime.Bus = (*Client)(nil)

// NewClient creates a new Redis client and checks the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromRedis(rdb), nil
}

// NewFromRedis wraps an existing go-redis client
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb, buffer: DefaultBuffer, logger: util.GetLogger()}
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Publish sends payload to every subscriber of group on any instance
func (c *Client) Publish(ctx context.Context, group string, payload []byte) error {
	if err := c.rdb.Publish(ctx, group, payload).Err(); err != nil {
		return fmt.Errorf("redis publish to %s failed: %w", group, err)
	}
	return nil
}

// Subscription is one Redis channel subscription forwarded into a buffered channel
type Subscription struct {
	ps     *redis.PubSub
	ch     chan []byte
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Subscribe joins group. It returns after Redis confirmed the subscription.
func (c *Client) Subscribe(ctx context.Context, group string) (realtime.Subscription, error) {
	ps := c.rdb.Subscribe(ctx, group)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe to %s failed: %w", group, err)
	}

	fwdCtx, cancel := context.WithCancel(context.Background())
	sub := &Subscription{
		ps:     ps,
		ch:     make(chan []byte, c.buffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.forward(fwdCtx, c.logger.With(zap.String("group", group)))
	return sub, nil
}

func (s *Subscription) forward(ctx context.Context, logger *zap.Logger) {
	defer close(s.done)
	defer close(s.ch)

	in := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.ch <- []byte(msg.Payload):
			default:
				logger.Debug("Dropping live message for slow subscriber")
			}
		}
	}
}

// C returns the delivery channel; it is closed after Close
func (s *Subscription) C() <-chan []byte {
	return s.ch
}

// Close unsubscribes and stops forwarding
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.ps.Close()
		<-s.done
	})
	return err
}
