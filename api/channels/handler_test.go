package channels

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/benchpsu/core/dispatch"
)

type fixedStatus []dispatch.ChannelStatus

func (f fixedStatus) Status() []dispatch.ChannelStatus { return f }

func TestStatusHandler(t *testing.T) {
	src := fixedStatus{
		{Index: 0, Coupling: "series", USet: 10},
		{Index: 1, Coupling: "series", USet: 10},
	}
	h := NewStatusHandler(src)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/channels/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var out []dispatch.ChannelStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out, 2)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/channels/status?channel=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Index)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/channels/status?channel=4", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
