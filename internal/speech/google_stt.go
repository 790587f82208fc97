package speech

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	speechapi "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/rbright/assist/internal/version"
)

type googleSpeechClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// GoogleRecognizer calls Cloud Speech-to-Text synchronous recognition.
type GoogleRecognizer struct {
	client googleSpeechClient
	model  string
	dump   io.Writer
}

// GoogleOptions configure a GoogleRecognizer.
type GoogleOptions struct {
	CredentialsFile string
	Model           string
	Dump            io.Writer
}

// NewGoogleRecognizer dials the speech API. An empty credentials file falls
// back to application default credentials.
func NewGoogleRecognizer(ctx context.Context, opts GoogleOptions) (*GoogleRecognizer, error) {
	clientOpts := []option.ClientOption{option.WithUserAgent(version.UserAgent())}
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := speechapi.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &GoogleRecognizer{client: client, model: opts.Model, dump: opts.Dump}, nil
}

func (g *GoogleRecognizer) Close() error {
	return g.client.Close()
}

// Recognize sends LINEAR16 audio and joins the top alternative of every result.
func (g *GoogleRecognizer) Recognize(ctx context.Context, utt Utterance, cfg RecognitionConfig) (RecognitionResult, error) {
	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(utt.SampleRate),
			LanguageCode:               cfg.Locale,
			ProfanityFilter:            cfg.Profanity != "raw",
			Model:                      g.model,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: utt.PCM},
		},
	}

	resp, err := g.client.Recognize(ctx, req, gax.WithRetry(func() gax.Retryer {
		return gax.OnCodes([]codes.Code{codes.Unavailable}, gax.Backoff{
			Initial:    200 * time.Millisecond,
			Max:        2 * time.Second,
			Multiplier: 2,
		})
	}))
	if err != nil {
		return grpcCancellation(ctx, err)
	}

	if g.dump != nil {
		if b, err := protojson.Marshal(resp); err == nil {
			_, _ = g.dump.Write(append(b, '\n'))
		}
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(alternatives[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return NoMatchResult(), nil
	}
	return RecognizedText(strings.Join(parts, " ")), nil
}

func grpcCancellation(ctx context.Context, err error) (RecognitionResult, error) {
	if ctx.Err() == context.Canceled {
		return RecognitionResult{}, ctx.Err()
	}

	st, ok := status.FromError(err)
	if !ok {
		return CanceledRecognition(errorCancellation(CodeConnectionFailure, err.Error())), nil
	}
	if st.Code() == codes.Canceled {
		return CanceledRecognition(Cancellation{Reason: ReasonCancelledByUser}), nil
	}
	return CanceledRecognition(errorCancellation(codeForGRPC(st.Code()), firstNonBlank(st.Message(), st.Code().String()))), nil
}

func codeForGRPC(code codes.Code) string {
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		return CodeAuthenticationFailure
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return CodeBadRequest
	case codes.ResourceExhausted:
		return CodeTooManyRequests
	case codes.DeadlineExceeded:
		return CodeServiceTimeout
	case codes.Unavailable:
		return CodeConnectionFailure
	default:
		return CodeServiceError
	}
}
