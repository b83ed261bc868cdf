package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesChainAndCode(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := Wrap(CodeDependency, cause, "pinging redis")

	require.Equal(t, CodeDependency, wrapped.Code())
	require.Equal(t, "pinging redis", wrapped.Message())
	require.ErrorIs(t, wrapped, cause)

	outer := fmt.Errorf("outer: %w", wrapped)
	typed := As(outer)
	require.NotNil(t, typed)
	require.Equal(t, CodeDependency, typed.Code())
}

func TestAsReturnsNilForPlainErrors(t *testing.T) {
	require.Nil(t, As(stderrors.New("plain")))
	require.Nil(t, As(nil))
}

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeDependency, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			require.Equal(t, tc.status, MetadataFor(tc.code).HTTPStatus)
		})
	}
}

func TestMetadataTableCoversEveryCode(t *testing.T) {
	codes := []Code{
		CodeValidation,
		CodeUnauthorized,
		CodeForbidden,
		CodeNotFound,
		CodeConflict,
		CodeStateConflict,
		CodeRateLimit,
		CodeInternal,
		CodeDependency,
	}
	require.Len(t, metadataByCode, len(codes))
	for _, code := range codes {
		meta, ok := metadataByCode[code]
		require.True(t, ok, "code %s has no metadata", code)
		require.NotZero(t, meta.HTTPStatus, "code %s", code)
		require.NotEmpty(t, meta.PublicMessage, "code %s", code)
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NO_SUCH_CODE"))
	require.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"name": "is required"})
	require.Equal(t, map[string]string{"name": "is required"}, err.Details())
}

func TestDumpExtractsPQFields(t *testing.T) {
	pqErr := &pq.Error{
		Code:       "23505",
		Constraint: "idx_products_slug",
		Table:      "products",
		Detail:     "Key (slug)=(fleur) already exists.",
		Message:    "duplicate key value violates unique constraint",
	}
	wrapped := Wrap(CodeConflict, fmt.Errorf("creating product: %w", pqErr), "product already exists")

	dump := Dump(wrapped)
	require.Equal(t, CodeConflict, dump.Code)
	require.Equal(t, "23505", dump.PGCode)
	require.Equal(t, "idx_products_slug", dump.PGConstraint)
	require.Equal(t, "products", dump.PGTable)
	require.NotEmpty(t, dump.Chain)
}

func TestDumpNil(t *testing.T) {
	require.Equal(t, ErrorDump{}, Dump(nil))
}
