package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vnit-lms/lms-service/internal/utils"
)

func newTestContext(t *testing.T, url string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, url, nil)
	return c, w
}

func TestParseIDParam(t *testing.T) {
	h := NewBaseHandler(utils.NewDevelopmentLogger())

	t.Run("valid id", func(t *testing.T) {
		c, w := newTestContext(t, "/quizzes/7")
		c.Params = gin.Params{{Key: "id", Value: "7"}}

		id, ok := h.parseIDParam(c, "id")

		assert.True(t, ok)
		assert.Equal(t, uint(7), id)
		assert.Empty(t, w.Body.String())
	})

	// Zero is a successfully parsed value, not an error signal; the
	// handler must keep going and let the lookup 404.
	t.Run("zero id parses", func(t *testing.T) {
		c, w := newTestContext(t, "/quizzes/0")
		c.Params = gin.Params{{Key: "id", Value: "0"}}

		id, ok := h.parseIDParam(c, "id")

		assert.True(t, ok)
		assert.Equal(t, uint(0), id)
		assert.Empty(t, w.Body.String())
	})

	t.Run("malformed id writes 400", func(t *testing.T) {
		c, w := newTestContext(t, "/quizzes/abc")
		c.Params = gin.Params{{Key: "id", Value: "abc"}}

		_, ok := h.parseIDParam(c, "id")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid id")
	})
}

func TestParseUintQuery(t *testing.T) {
	h := NewBaseHandler(utils.NewDevelopmentLogger())

	t.Run("valid value", func(t *testing.T) {
		c, w := newTestContext(t, "/attempts?quiz_id=12")

		id, ok := h.parseUintQuery(c, "quiz_id")

		assert.True(t, ok)
		assert.Equal(t, uint(12), id)
		assert.Empty(t, w.Body.String())
	})

	t.Run("missing parameter writes 400", func(t *testing.T) {
		c, w := newTestContext(t, "/attempts")

		_, ok := h.parseUintQuery(c, "quiz_id")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Missing quiz_id")
	})

	t.Run("malformed value writes 400", func(t *testing.T) {
		c, w := newTestContext(t, "/attempts?quiz_id=-1")

		_, ok := h.parseUintQuery(c, "quiz_id")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
