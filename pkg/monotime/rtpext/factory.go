package rtpext

import (
	"errors"
	"time"

	"github.com/pion/interceptor"

	"github.com/thesyncim/monotime/pkg/monotime"
)

// FactoryOption configures the Factory.
type FactoryOption func(*Factory) error

// Factory creates TimingInterceptor instances for each PeerConnection.
// Register it with a pion interceptor registry to stamp outgoing
// packets and measure incoming delay on every connection.
type Factory struct {
	clock          monotime.Clock
	reportInterval time.Duration
	senderSSRC     uint32
	onDelay        func(ssrc uint32, delay monotime.Duration)
}

// WithFactoryClock sets the clock shared by all interceptors the
// factory creates. When unset, each interceptor gets its own
// SystemClock — note that delay samples are then only comparable
// within one interceptor.
func WithFactoryClock(clock monotime.Clock) FactoryOption {
	return func(f *Factory) error {
		if clock == nil {
			return errors.New("clock must not be nil")
		}
		f.clock = clock
		return nil
	}
}

// WithFactoryReportInterval sets how often receiver reports are sent.
// Default: 1 second.
func WithFactoryReportInterval(interval time.Duration) FactoryOption {
	return func(f *Factory) error {
		if interval <= 0 {
			return errors.New("report interval must be positive")
		}
		f.reportInterval = interval
		return nil
	}
}

// WithFactorySenderSSRC sets the reporter SSRC for receiver reports.
func WithFactorySenderSSRC(ssrc uint32) FactoryOption {
	return func(f *Factory) error {
		f.senderSSRC = ssrc
		return nil
	}
}

// WithFactoryOnDelay sets a callback invoked with every delay sample
// measured by any interceptor the factory creates.
func WithFactoryOnDelay(fn func(ssrc uint32, delay monotime.Duration)) FactoryOption {
	return func(f *Factory) error {
		f.onDelay = fn
		return nil
	}
}

// NewFactory creates a new factory for TimingInterceptor instances.
//
// Example:
//
//	factory, err := rtpext.NewFactory(
//	    rtpext.WithFactoryReportInterval(500*time.Millisecond),
//	)
//	if err != nil {
//	    return err
//	}
//	registry.Add(factory)
func NewFactory(opts ...FactoryOption) (*Factory, error) {
	f := &Factory{
		reportInterval: time.Second,
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// NewInterceptor creates a new TimingInterceptor for a PeerConnection.
// Called by the interceptor registry when setting up a connection.
func (f *Factory) NewInterceptor(_ string) (interceptor.Interceptor, error) {
	opts := []Option{
		WithReportInterval(f.reportInterval),
		WithSenderSSRC(f.senderSSRC),
	}
	if f.clock != nil {
		opts = append(opts, WithClock(f.clock))
	}
	if f.onDelay != nil {
		opts = append(opts, WithOnDelay(f.onDelay))
	}
	return NewTimingInterceptor(opts...), nil
}
