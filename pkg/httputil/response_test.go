package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func render(err error) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithError(c, err)
	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestRespondWithError(t *testing.T) {
	w, resp := render(errors.CardInvalid("HN4010987654321", []string{"expired"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	assert.Equal(t, errors.ReasonCardInvalid, resp.Error.Reason)
	assert.Equal(t, []interface{}{"expired"}, resp.Error.Details["reasons"])

	w, resp = render(errors.ClaimNotFound("BHYT202406000001"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ReasonClaimNotFound, resp.Error.Reason)

	w, resp = render(fmt.Errorf("pq: connection reset"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.ReasonInternal, resp.Error.Reason)
	assert.Equal(t, "Internal server error", resp.Error.Message)
}

func TestRespondWithPagination(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithPagination(c, []int{1, 2}, 2, 2, 5)

	var body struct {
		Data PaginatedResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.Pagination.TotalPage)
	assert.Equal(t, 5, body.Data.Pagination.Total)
}
