package sink

import (
	"context"
	"strings"

	"github.com/code19m/errx"
	sentinelpb "github.com/code19m/sentinel/pb"
	"github.com/spf13/cast"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rise-and-shine/errwatch/meta"
)

const (
	sentinelCode      = "ALERT"
	sentinelOperation = "alert"
)

// sentinelSink forwards alerts to a Sentinel service over gRPC.
type sentinelSink struct {
	client sentinelpb.SentinelServiceClient
	conn   *grpc.ClientConn
}

func newSentinelSink(host string, port int) (Sink, error) {
	if host == "" || port == 0 {
		return nil, missingCredentials(ProviderSentinel)
	}

	conn, err := grpc.NewClient(
		host+":"+cast.ToString(port),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &sentinelSink{
		client: sentinelpb.NewSentinelServiceClient(conn),
		conn:   conn,
	}, nil
}

// Send reports the alert body as the error message. The mention line and the
// request metadata found in ctx travel as details.
func (s *sentinelSink) Send(ctx context.Context, text string) error {
	mention, body, _ := strings.Cut(text, "\n")

	svc := meta.Service()
	details := map[string]string{
		"mention":         mention,
		"service_version": svc.Version,
	}
	for k, v := range meta.ExtractMetaFromContext(ctx) {
		details[string(k)] = v
	}

	_, err := s.client.SendError(ctx, &sentinelpb.ErrorInfo{
		Code:      sentinelCode,
		Message:   body,
		Service:   svc.Name,
		Operation: sentinelOperation,
		Details:   details,
	})

	return errx.Wrap(err)
}

// Close releases the gRPC connection.
func (s *sentinelSink) Close() error {
	return s.conn.Close()
}
