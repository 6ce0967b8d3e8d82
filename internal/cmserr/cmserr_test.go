package cmserr_test

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/jjenkins/evcms/internal/cmserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	t.Parallel()

	cases := map[cmserr.Kind]int{
		cmserr.KindBadRequest:       http.StatusBadRequest,
		cmserr.KindNotFound:         http.StatusNotFound,
		cmserr.KindMethodNotAllowed: http.StatusMethodNotAllowed,
		cmserr.KindInternal:         http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status(), kind.String())
	}
}

func TestFrom(t *testing.T) {
	t.Parallel()

	nf := cmserr.NotFound("entry %s not found", "a.md")
	wrapped := fmt.Errorf("failed to load: %w", nf)

	got := cmserr.From(wrapped)
	require.Same(t, nf, got)
	require.Equal(t, "entry a.md not found", got.Message)
	require.True(t, cmserr.Is(wrapped, cmserr.KindNotFound))

	raw := cmserr.From(os.ErrPermission)
	require.Equal(t, cmserr.KindInternal, raw.Kind)
	require.Equal(t, "internal server error", raw.Message)
	require.True(t, errors.Is(raw, os.ErrPermission))

	require.Nil(t, cmserr.From(nil))
}
