package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidArgument:    http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeAlreadyExists:      http.StatusConflict,
		CodePermissionDenied:   http.StatusForbidden,
		CodeUnauthenticated:    http.StatusUnauthorized,
		CodeFailedPrecondition: http.StatusConflict,
		CodeInternal:           http.StatusInternalServerError,
		CodeUnknown:            http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, code.HTTPStatus(), "code %s", code)
	}
}

func TestFrom(t *testing.T) {
	t.Run("preserves an application error", func(t *testing.T) {
		err := NotFound("missing thing")
		appErr := From(err)
		require.Equal(t, CodeNotFound, appErr.Code)
		require.Equal(t, "missing thing", appErr.Message)
	})

	t.Run("unwraps through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("while handling: %w", Forbidden("no entry"))
		appErr := From(err)
		require.Equal(t, CodePermissionDenied, appErr.Code)
	})

	t.Run("unknown errors become internal with the cause kept", func(t *testing.T) {
		cause := errors.New("disk on fire")
		appErr := From(cause)
		require.Equal(t, CodeInternal, appErr.Code)
		require.ErrorIs(t, appErr, cause)
	})
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(CodeInternal, "wrapped", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "wrapped")
	require.Contains(t, err.Error(), "root cause")
}
