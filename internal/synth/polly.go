package synth

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Polly billed characters per request.
const pollyMaxTextSize = 3000

// speechAPI is the part of the Polly client the engine uses.
type speechAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollyConfig holds configuration for the Amazon Polly engine.
type PollyConfig struct {
	// Static credentials. When both are empty the default AWS credential
	// chain (environment, shared config, instance role) is used.
	AccessKeyID     string
	SecretAccessKey string

	Region       string // defaults to us-east-1
	Voice        string // defaults to Zhiyu
	Engine       string // standard, neural, long-form or generative; defaults to neural
	LanguageCode string // defaults to cmn-CN
	SampleRate   int    // 8000 or 16000 for PCM; defaults to 16000
}

// Polly implements Synthesizer using Amazon Polly.
type Polly struct {
	client speechAPI
	cfg    PollyConfig
}

func (c *PollyConfig) setDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.Voice == "" {
		c.Voice = "Zhiyu"
	}
	if c.Engine == "" {
		c.Engine = "neural"
	}
	if c.LanguageCode == "" {
		c.LanguageCode = "cmn-CN"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
}

func (c PollyConfig) validate() error {
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return newError(EnginePolly, "both access_key_id and secret_access_key are required", ErrMissingCredentials)
	}
	if c.SampleRate != 8000 && c.SampleRate != 16000 {
		return fmt.Errorf("polly PCM sample rate must be 8000 or 16000 Hz, got %d", c.SampleRate)
	}
	return nil
}

// NewPolly creates a Polly engine, loading the AWS configuration.
func NewPolly(ctx context.Context, cfg PollyConfig) (*Polly, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return newPollyWithClient(polly.NewFromConfig(awsCfg), cfg), nil
}

func newPollyWithClient(client speechAPI, cfg PollyConfig) *Polly {
	cfg.setDefaults()
	return &Polly{client: client, cfg: cfg}
}

// Synthesize converts text to 16-bit mono PCM.
func (p *Polly) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := checkText(EnginePolly, text, pollyMaxTextSize); err != nil {
		return nil, err
	}

	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       types.Engine(p.cfg.Engine),
		LanguageCode: types.LanguageCode(p.cfg.LanguageCode),
		OutputFormat: types.OutputFormatPcm,
		SampleRate:   aws.String(strconv.Itoa(p.cfg.SampleRate)),
		Text:         aws.String(text),
		TextType:     types.TextTypeText,
		VoiceId:      types.VoiceId(p.cfg.Voice),
	})
	if err != nil {
		return nil, newError(EnginePolly, "synthesize speech", err)
	}
	defer out.AudioStream.Close() //nolint:errcheck

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, newError(EnginePolly, "read audio stream", err)
	}
	if len(audio) == 0 {
		return nil, newError(EnginePolly, "empty audio stream", nil)
	}

	log.Debug("polly synthesized paragraph",
		"chars", len(text),
		"audio", humanize.Bytes(uint64(len(audio))),
		"voice", p.cfg.Voice)

	return audio, nil
}

// Info returns engine capabilities.
func (p *Polly) Info() Info {
	return Info{
		Name:        EnginePolly,
		SampleRate:  p.cfg.SampleRate,
		Channels:    1,
		MaxTextSize: pollyMaxTextSize,
		IsOnline:    true,
	}
}

var _ Synthesizer = (*Polly)(nil)
