package grpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"Vic2Economy/internal/shared/transport"
)

// StatusError 把业务码转换成 grpc status。
func StatusError(bizCode int, msg string) error {
	if bizCode == transport.OK {
		return nil
	}
	return status.Error(grpcCodeOf(bizCode), msg)
}

func grpcCodeOf(bizCode int) codes.Code {
	switch bizCode {
	case transport.OK:
		return codes.OK
	case transport.InvalidParam, transport.TooLarge:
		return codes.InvalidArgument
	case transport.Unauthorized:
		return codes.Unauthenticated
	case transport.Forbidden:
		return codes.PermissionDenied
	case transport.NotFound:
		return codes.NotFound
	case transport.TooMany:
		return codes.ResourceExhausted
	case transport.Unavailable:
		return codes.Unavailable
	case transport.Timeout:
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

func httpCodeOf(c codes.Code) int {
	switch c {
	case codes.OK:
		return transport.OK
	case codes.InvalidArgument:
		return transport.InvalidParam
	case codes.Unauthenticated:
		return transport.Unauthorized
	case codes.PermissionDenied:
		return transport.Forbidden
	case codes.NotFound:
		return transport.NotFound
	case codes.ResourceExhausted:
		return transport.TooMany
	case codes.Unavailable:
		return transport.Unavailable
	case codes.DeadlineExceeded:
		return transport.Timeout
	default:
		return transport.SystemError
	}
}
