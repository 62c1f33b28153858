package fitcodec

import (
	"github.com/rs/zerolog"

	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/profile"
)

type decoderConfig struct {
	logger      zerolog.Logger
	registry    *message.Registry
	profile     *profile.Profile
	catalog     *message.DeveloperCatalog
	autoCatalog bool
	strictCRC   bool
}

func newDecoderConfig(opts []Option) decoderConfig {
	cfg := decoderConfig{
		logger:      zerolog.Nop(),
		profile:     profile.Default(),
		autoCatalog: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a Decoder.
type Option func(*decoderConfig)

// WithLogger sets the decoder's logger. Decoders are silent by default.
func WithLogger(l zerolog.Logger) Option {
	return func(c *decoderConfig) { c.logger = l }
}

// WithRegistry sets the registry used to wrap messages in typed shims.
func WithRegistry(r *message.Registry) Option {
	return func(c *decoderConfig) { c.registry = r }
}

// WithProfile replaces the embedded message catalog.
func WithProfile(p *profile.Profile) Option {
	return func(c *decoderConfig) { c.profile = p }
}

// WithDeveloperCatalog resolves developer fields against a shared catalog
// instead of a per-session one.
func WithDeveloperCatalog(cat *message.DeveloperCatalog) Option {
	return func(c *decoderConfig) { c.catalog = cat }
}

// WithoutAutoDeveloperCatalog stops field_description and developer_data_id
// messages from being added to the catalog as they are decoded.
func WithoutAutoDeveloperCatalog() Option {
	return func(c *decoderConfig) { c.autoCatalog = false }
}

// WithStrictCRC makes DecodeFile fail on header or file CRC mismatches.
func WithStrictCRC() Option {
	return func(c *decoderConfig) { c.strictCRC = true }
}

type encoderConfig struct {
	logger     zerolog.Logger
	profile    *profile.Profile
	catalog    *message.DeveloperCatalog
	bigEndian  bool
	compress   bool
	localTypes int
}

func newEncoderConfig(opts []EncoderOption) encoderConfig {
	cfg := encoderConfig{
		logger:     zerolog.Nop(),
		profile:    profile.Default(),
		localTypes: 16,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.localTypes < 1 {
		cfg.localTypes = 1
	}
	if cfg.localTypes > 16 {
		cfg.localTypes = 16
	}
	if cfg.catalog == nil {
		cfg.catalog = message.NewDeveloperCatalog()
	}
	return cfg
}

// EncoderOption configures an Encoder.
type EncoderOption func(*encoderConfig)

// WithEncoderLogger sets the encoder's logger.
func WithEncoderLogger(l zerolog.Logger) EncoderOption {
	return func(c *encoderConfig) { c.logger = l }
}

// WithEncoderProfile replaces the embedded message catalog.
func WithEncoderProfile(p *profile.Profile) EncoderOption {
	return func(c *encoderConfig) { c.profile = p }
}

// WithEncoderDeveloperCatalog supplies base types and scaling for developer
// fields.
func WithEncoderDeveloperCatalog(cat *message.DeveloperCatalog) EncoderOption {
	return func(c *encoderConfig) { c.catalog = cat }
}

// WithBigEndian writes definitions with the big-endian architecture.
func WithBigEndian() EncoderOption {
	return func(c *encoderConfig) { c.bigEndian = true }
}

// WithCompressedTimestamps writes messages whose timestamp lies less than 32
// seconds after the previous one with a compressed header. Compressible
// messages are limited to local types 0-3.
func WithCompressedTimestamps() EncoderOption {
	return func(c *encoderConfig) { c.compress = true }
}

// WithLocalTypes bounds how many local message types (1-16) the encoder
// cycles through.
func WithLocalTypes(n int) EncoderOption {
	return func(c *encoderConfig) { c.localTypes = n }
}
