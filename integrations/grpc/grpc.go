// Package grpc maps error envelopes onto gRPC statuses.
//
// The status message is the envelope message. The code travels as the
// reason of a google.rpc.ErrorInfo whose metadata also holds the trace
// ID, retry flag and HTTP status. google.rpc.RetryInfo carries the retry
// hint and google.rpc.BadRequest carries validation fields.
package grpc

import (
	"context"
	"sort"
	"strconv"
	"time"

	errenvelope "github.com/blackwell-systems/error-envelope"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/durationpb"
)

// Domain is the ErrorInfo domain used for envelope details.
const Domain = "error-envelope"

const (
	metaTraceID   = "trace_id"
	metaRetryable = "retryable"
	metaStatus    = "http_status"
)

// GRPCCode returns the gRPC code for an envelope code.
func GRPCCode(c errenvelope.Code) codes.Code {
	switch c {
	case errenvelope.CodeInternal:
		return codes.Internal
	case errenvelope.CodeBadRequest, errenvelope.CodeValidationFailed:
		return codes.InvalidArgument
	case errenvelope.CodeNotFound, errenvelope.CodeGone:
		return codes.NotFound
	case errenvelope.CodeMethodNotAllowed:
		return codes.Unimplemented
	case errenvelope.CodeConflict:
		return codes.Aborted
	case errenvelope.CodePayloadTooLarge, errenvelope.CodeRateLimited:
		return codes.ResourceExhausted
	case errenvelope.CodeRequestTimeout, errenvelope.CodeTimeout, errenvelope.CodeDownstreamTimeout:
		return codes.DeadlineExceeded
	case errenvelope.CodeUnavailable, errenvelope.CodeDownstream:
		return codes.Unavailable
	case errenvelope.CodeUnauthorized:
		return codes.Unauthenticated
	case errenvelope.CodeForbidden:
		return codes.PermissionDenied
	case errenvelope.CodeUnprocessableEntity:
		return codes.FailedPrecondition
	case errenvelope.CodeCanceled:
		return codes.Canceled
	default:
		return codes.Unknown
	}
}

// ToStatus converts an envelope into a gRPC status with rich details.
func ToStatus(e *errenvelope.Error) *status.Status {
	if e == nil {
		return status.New(codes.OK, "")
	}

	md := map[string]string{
		metaRetryable: strconv.FormatBool(e.Retryable()),
		metaStatus:    strconv.Itoa(e.Status()),
	}
	if id := e.TraceID(); id != "" {
		md[metaTraceID] = id
	}

	st := status.New(GRPCCode(e.Code()), e.Message())
	details := []protoadapt.MessageV1{
		&errdetails.ErrorInfo{
			Reason:   string(e.Code()),
			Domain:   Domain,
			Metadata: md,
		},
	}
	if d, ok := e.RetryAfter(); ok {
		details = append(details, &errdetails.RetryInfo{RetryDelay: durationpb.New(d)})
	}
	if v, ok := e.Details().(errenvelope.ValidationDetails); ok && len(v.Fields) > 0 {
		details = append(details, badRequest(v.Fields))
	}
	if id := e.TraceID(); id != "" {
		details = append(details, &errdetails.RequestInfo{RequestId: id})
	}

	if with, err := st.WithDetails(details...); err == nil {
		return with
	}
	return st
}

// FromStatus rebuilds an envelope from a gRPC error.
//
// Errors carrying envelope ErrorInfo round-trip code, message, trace ID,
// retry flag, HTTP status, retry hint and validation fields. Other gRPC
// errors are classified by their gRPC code. Non-gRPC errors go through
// errenvelope.From.
func FromStatus(err error) *errenvelope.Error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return errenvelope.From(err)
	}

	var (
		info   *errdetails.ErrorInfo
		retry  *errdetails.RetryInfo
		fields errenvelope.FieldErrors
	)
	for _, d := range st.Details() {
		switch v := d.(type) {
		case *errdetails.ErrorInfo:
			if v.GetDomain() == Domain {
				info = v
			}
		case *errdetails.RetryInfo:
			retry = v
		case *errdetails.BadRequest:
			fields = make(errenvelope.FieldErrors, len(v.GetFieldViolations()))
			for _, fv := range v.GetFieldViolations() {
				fields[fv.GetField()] = fv.GetDescription()
			}
		}
	}

	var e *errenvelope.Error
	if info != nil {
		code, ok := errenvelope.ParseCode(info.GetReason())
		if !ok {
			code = errenvelope.CodeInternal
		}
		md := info.GetMetadata()
		httpStatus, _ := strconv.Atoi(md[metaStatus])
		e = errenvelope.New(code, httpStatus, st.Message())
		if r, err := strconv.ParseBool(md[metaRetryable]); err == nil {
			e = e.WithRetryable(r)
		}
		if id := md[metaTraceID]; id != "" {
			e = e.WithTraceID(id)
		}
	} else {
		e = errenvelope.New(codeFromGRPC(st.Code()), 0, st.Message())
	}

	if fields != nil {
		e = e.WithDetails(errenvelope.ValidationDetails{Fields: fields})
	}
	if retry != nil && retry.GetRetryDelay() != nil {
		e = e.WithRetryAfter(retry.GetRetryDelay().AsDuration())
	}
	return e
}

// UnaryServerInterceptor converts handler errors into envelope-backed
// gRPC statuses. Errors that already carry a gRPC status pass through.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return nil, err
		}

		e := errenvelope.From(err)
		if e.TraceID() == "" {
			if id := errenvelope.GetTraceID(ctx); id != "" {
				e = e.WithTraceID(id)
			}
		}
		return nil, ToStatus(e).Err()
	}
}

// RetryDelay is a convenience for clients: it returns the retry hint
// carried by a gRPC error.
func RetryDelay(err error) (time.Duration, bool) {
	e := FromStatus(err)
	if e == nil {
		return 0, false
	}
	return e.RetryAfter()
}

func badRequest(fields errenvelope.FieldErrors) *errdetails.BadRequest {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	br := &errdetails.BadRequest{}
	for _, name := range names {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       name,
			Description: fields[name],
		})
	}
	return br
}

func codeFromGRPC(c codes.Code) errenvelope.Code {
	switch c {
	case codes.InvalidArgument, codes.OutOfRange:
		return errenvelope.CodeBadRequest
	case codes.NotFound:
		return errenvelope.CodeNotFound
	case codes.AlreadyExists, codes.Aborted:
		return errenvelope.CodeConflict
	case codes.PermissionDenied:
		return errenvelope.CodeForbidden
	case codes.Unauthenticated:
		return errenvelope.CodeUnauthorized
	case codes.ResourceExhausted:
		return errenvelope.CodeRateLimited
	case codes.FailedPrecondition:
		return errenvelope.CodeUnprocessableEntity
	case codes.Unimplemented:
		return errenvelope.CodeMethodNotAllowed
	case codes.DeadlineExceeded:
		return errenvelope.CodeTimeout
	case codes.Canceled:
		return errenvelope.CodeCanceled
	case codes.Unavailable:
		return errenvelope.CodeUnavailable
	default:
		return errenvelope.CodeInternal
	}
}
