package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONAcceptedResponse_SnakeCasesMapKeys(t *testing.T) {
	rr := httptest.NewRecorder()

	err := JSONAcceptedResponse(rr, map[string]any{
		"WalletID": 3,
		"Nested":   map[string]any{"TotalPayed": "10"},
	}, "")
	require.NoError(t, err)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, "Request successful", body["message"])

	data := body["data"].(map[string]any)
	require.Contains(t, data, "wallet_id")
	require.Contains(t, data["nested"], "total_payed")
}

func TestJSONErrorResponse_Defaults(t *testing.T) {
	rr := httptest.NewRecorder()

	require.NoError(t, JSONErrorResponse(rr, []string{"bad"}, "", 0, nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"status":500,"success":false,"message":"Request failed","error":["bad"]}`, rr.Body.String())
}

func TestMetricsResponseWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	mw := NewMetricsResponseWriter(rr)

	mw.WriteHeader(http.StatusTeapot)
	mw.WriteHeader(http.StatusOK)
	_, err := mw.Write([]byte("short and stout"))
	require.NoError(t, err)

	require.Equal(t, http.StatusTeapot, mw.StatusCode)
	require.Equal(t, 15, mw.BytesCount)
}
