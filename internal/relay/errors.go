package relay

import (
	"context"
	"errors"

	"github.com/rezonia/einvoice-gateway/internal/model"
)

// transportError classifies a failed HTTP exchange. A cancelled parent
// context is an abort; an expired call deadline is a timeout.
func transportError(parent, call context.Context, vendor model.Vendor, op string, err error) *model.NetworkError {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		netErr := model.NewNetworkError(vendor, op, "request aborted", err)
		netErr.Aborted = true
		return netErr
	case errors.Is(call.Err(), context.DeadlineExceeded), isTimeout(err):
		netErr := model.NewNetworkError(vendor, op, "request timed out", err)
		netErr.Timeout = true
		return netErr
	}
	return model.NewNetworkError(vendor, op, "request failed", err)
}

// isTimeout reports an HTTP client timeout, which is not a context deadline
func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
