package errutil_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("nil error stays nil", func(t *testing.T) {
		gt.NoError(t, errutil.Handle(ctx, nil, "nothing"))
	})

	t.Run("returns the same error", func(t *testing.T) {
		orig := goerr.New("boom", goerr.V("key", "value"))
		err := errutil.Handle(ctx, orig, "failed")
		gt.Bool(t, errors.Is(err, orig)).True()
	})
}

func TestHandleHTTP(t *testing.T) {
	w := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), w, errors.New("bad payload"), "invalid request", http.StatusBadRequest)

	gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	gt.String(t, w.Header().Get("Content-Type")).Equal("application/json")

	var resp errutil.ErrorResponse
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	gt.String(t, resp.Error).Equal("invalid request")
	gt.String(t, resp.Details).Equal("bad payload")
}
