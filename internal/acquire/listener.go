package acquire

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ivlev/pixelsculptor/internal/config"
	"github.com/ivlev/pixelsculptor/internal/logging"
)

// ErrTimeout is returned by Wait when no image arrived in time.
var ErrTimeout = errors.New("timed out waiting for source image")

const connectTimeout = 10 * time.Second

// Acquired is a decoded image and how it was read.
type Acquired struct {
	Image    image.Image
	Strategy string
	Topic    string
	Bytes    int
}

// Listener subscribes to a topic and keeps the first image decoded from it.
type Listener struct {
	cfg     config.MQTTConfig
	decoder *Decoder

	mu  sync.Mutex
	acc *Accumulator

	client mqtt.Client
	images chan *Acquired
}

func NewListener(cfg config.MQTTConfig, decoder *Decoder) *Listener {
	if decoder == nil {
		decoder = NewDecoder()
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "pixelsculptor-" + uuid.NewString()[:8]
	}
	return &Listener{
		cfg:     cfg,
		decoder: decoder,
		acc:     NewAccumulator(cfg.IgnorePrefixes...),
		images:  make(chan *Acquired, 1),
	}
}

// Start connects to the broker, retrying with exponential backoff until ctx
// ends, and subscribes to the configured topic.
func (l *Listener) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(l.cfg.Broker).
		SetClientID(l.cfg.ClientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetOnConnectHandler(l.subscribe)
	l.client = mqtt.NewClient(opts)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute

	attempt := 0
	connect := func() error {
		attempt++
		tok := l.client.Connect()
		if !tok.WaitTimeout(connectTimeout) {
			return errors.Errorf("connect to %s timed out", l.cfg.Broker)
		}
		return tok.Error()
	}
	notify := func(err error, next time.Duration) {
		logging.Warningf("[!] MQTT connect attempt %d failed: %v (retry in %s)", attempt, err, next)
	}
	if err := backoff.RetryNotify(connect, backoff.WithContext(b, ctx), notify); err != nil {
		return errors.Wrapf(err, "connecting to %s", l.cfg.Broker)
	}
	logging.Infof("[+] MQTT connected to %s as %s", l.cfg.Broker, l.cfg.ClientID)
	return nil
}

func (l *Listener) subscribe(c mqtt.Client) {
	tok := c.Subscribe(l.cfg.Topic, l.cfg.QoS, func(_ mqtt.Client, m mqtt.Message) {
		l.handle(m.Topic(), m.Payload())
	})
	if err := subscribeResult(tok, connectTimeout); err != nil {
		logging.Errorf("[!] subscribe %s: %v", l.cfg.Topic, err)
		return
	}
	logging.Infof("[*] subscribed to %s", l.cfg.Topic)
}

// subscribeResult waits for tok and reports a timeout as an error.
func subscribeResult(tok mqtt.Token, timeout time.Duration) error {
	if !tok.WaitTimeout(timeout) {
		return errors.Errorf("no SUBACK within %s", timeout)
	}
	return tok.Error()
}

// handle decodes one message. Chunked topics go through the accumulator
// first. Only the first image is kept.
func (l *Listener) handle(topic string, payload []byte) {
	logging.Debugf("[*] RX %s on %s", humanize.Bytes(uint64(len(payload))), topic)

	if l.cfg.Chunked {
		l.mu.Lock()
		msg, err := l.acc.Feed(payload)
		l.mu.Unlock()
		if err != nil {
			logging.Warningf("[!] %v", err)
			return
		}
		if msg == nil {
			return
		}
		payload = msg
	}

	img, strategy, err := l.decoder.Decode(payload)
	if err != nil {
		logging.Warningf("[!] failed to decode source image: %v", err)
		return
	}
	b := img.Bounds()
	logging.Infof("[+] source image loaded (%s): %dx%d", strategy, b.Dx(), b.Dy())

	select {
	case l.images <- &Acquired{Image: img, Strategy: strategy, Topic: topic, Bytes: len(payload)}:
	default:
	}
}

// Wait blocks until an image is decoded, ctx ends, or timeout passes.
// A non-positive timeout uses the configured one.
func (l *Listener) Wait(ctx context.Context, timeout time.Duration) (*Acquired, error) {
	if timeout <= 0 {
		timeout = l.cfg.Timeout
	}
	if timeout <= 0 {
		timeout = config.DefaultMQTTTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case a := <-l.images:
		return a, nil
	case <-timer.C:
		return nil, errors.Wrapf(ErrTimeout, "after %s on %s", timeout, l.cfg.Topic)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close disconnects from the broker.
func (l *Listener) Close() {
	if l.client != nil && l.client.IsConnected() {
		l.client.Disconnect(250)
	}
}
