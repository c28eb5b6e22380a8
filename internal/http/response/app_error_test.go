package response

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAppErrorWriteHidesCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(RequestIDKey, "req-42")

	cause := errors.New("sql: connection refused")
	appErr := NewAppError(CodeInternal, "order fetch failed", cause)
	if !errors.Is(appErr, cause) || !appErr.Internal() {
		t.Fatalf("expected internal error wrapping cause: %v", appErr)
	}
	if NewAppError(CodeConflict, "conflict", nil).Internal() {
		t.Fatalf("409 must not count as internal")
	}
	appErr.Write(c)

	var body struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if w.Code != 200 || body.StatusCode != CodeInternal || body.Msg != "order fetch failed" || body.Data[RequestIDKey] != "req-42" {
		t.Fatalf("unexpected envelope: http=%d %+v", w.Code, body)
	}
}

func TestNewPaginationRoundsUp(t *testing.T) {
	if p := NewPagination(2, 6, 13); p.TotalPage != 3 || p.Page != 2 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if p := NewPagination(1, 0, 13); p.TotalPage != 0 {
		t.Fatalf("zero page size should give zero pages: %+v", p)
	}
}
