package rpc

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// errorTrailer carries the CBOR-encoded errorDetail of a failed call.
const errorTrailer = "lockship-error-bin"

// errorKinds names the domain errors that survive a trip over the wire.
var errorKinds = map[string]error{
	"tool_not_found":         domain.ErrToolNotFound,
	"installation_failed":    domain.ErrInstallationFailed,
	"unsupported_backend":    domain.ErrUnsupportedBackend,
	"unknown_codec":          domain.ErrUnknownCodec,
	"payload_corrupt":        domain.ErrPayloadCorrupt,
	"payload_write_failed":   domain.ErrPayloadWriteFailed,
	"no_installer":           domain.ErrNoInstaller,
	"worker_not_found":       domain.ErrWorkerNotFound,
	"worker_unavailable":     domain.ErrWorkerUnavailable,
	"invalid_worker":         domain.ErrInvalidWorker,
	"worker_busy":            domain.ErrWorkerBusy,
	"process_start_failed":   domain.ErrProcessStartFailed,
	"settle_timeout":         domain.ErrSettleTimeout,
	"convergence_failed":     domain.ErrConvergenceFailed,
	"malformed_lockfile":     domain.ErrMalformedLockfile,
	"unresolved_requirement": domain.ErrUnresolvedRequirement,
}

type errorDetail struct {
	Kind     string            `cbor:"kind,omitempty"`
	Metadata map[string]string `cbor:"metadata,omitempty"`
}

// remoteError is an error raised on the other side of a call. Its message is
// the remote error's full text and it unwraps to the matching domain error.
type remoteError struct {
	message string
	kind    error
}

func (e *remoteError) Error() string { return e.message }

func (e *remoteError) Unwrap() error { return e.kind }

// toStatus converts a handler error into a gRPC status and attaches the
// error's kind and metadata as a trailer.
func toStatus(ctx context.Context, err error) error {
	detail := errorDetail{Kind: kindOf(err), Metadata: metadataOf(err)}
	if b, mErr := encMode.Marshal(detail); mErr == nil {
		_ = grpc.SetTrailer(ctx, metadata.Pairs(errorTrailer, string(b)))
	}
	return status.Error(codeOf(err), err.Error())
}

// fromStatus rebuilds an error returned by a call.
func fromStatus(err error, trailer metadata.MD) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var detail errorDetail
	if values := trailer.Get(errorTrailer); len(values) > 0 {
		_ = decMode.Unmarshal([]byte(values[0]), &detail)
	}

	kind, known := errorKinds[detail.Kind]
	switch {
	case known:
	case st.Code() == codes.Canceled:
		kind = context.Canceled
	case st.Code() == codes.DeadlineExceeded:
		kind = context.DeadlineExceeded
	case st.Code() == codes.Unavailable:
		kind = domain.ErrWorkerUnavailable
	default:
		kind = errors.New(st.Code().String())
	}

	var out error = &remoteError{message: st.Message(), kind: kind}
	for _, k := range slices.Sorted(maps.Keys(detail.Metadata)) {
		out = zerr.With(out, k, detail.Metadata[k])
	}
	return out
}

func kindOf(err error) string {
	for _, name := range slices.Sorted(maps.Keys(errorKinds)) {
		if errors.Is(err, errorKinds[name]) {
			return name
		}
	}
	return ""
}

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, domain.ErrWorkerNotFound),
		errors.Is(err, domain.ErrNoInstaller):
		return codes.NotFound
	case errors.Is(err, domain.ErrInvalidWorker),
		errors.Is(err, domain.ErrUnsupportedBackend),
		errors.Is(err, domain.ErrUnknownCodec):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrWorkerBusy):
		return codes.Aborted
	case errors.Is(err, domain.ErrWorkerUnavailable):
		return codes.Unavailable
	case kindOf(err) != "":
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// metadataOf collects the metadata of every zerr error in err's chain.
// Outer values win.
func metadataOf(err error) map[string]string {
	out := make(map[string]string)
	for e := err; e != nil; e = errors.Unwrap(e) {
		var ze *zerr.Error
		if !errors.As(e, &ze) {
			break
		}
		for k, v := range ze.Metadata() {
			if _, seen := out[k]; !seen {
				out[k] = fmt.Sprint(v)
			}
		}
		e = ze
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
