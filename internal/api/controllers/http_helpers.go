package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/curaious/folio/internal/api/response"
)

// User value keys set by the server middlewares.
const (
	TraceCtxKey    = "traceCtx"
	AdminClaimsKey = "adminClaims"
)

// requestContext returns the context extracted by the tracing middleware, or
// Background when the handler runs without it.
func requestContext(ctx *fasthttp.RequestCtx) context.Context {
	if stdCtx, ok := ctx.UserValue(TraceCtxKey).(context.Context); ok {
		return stdCtx
	}
	return context.Background()
}

func parseBody(ctx *fasthttp.RequestCtx, target any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return errors.New("request body is empty")
	}

	return json.Unmarshal(body, target)
}

func writeError(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, err error) {
	response.NewResponse[any](stdCtx, message, nil).WithError(err).Write(ctx)
}

func writeOK(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, data any) {
	response.NewResponse(stdCtx, message, data).Write(ctx)
}

func writeWarning(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, warning string, data any) {
	response.NewResponse(stdCtx, message, data).WithWarning(warning).Write(ctx)
}

func pathParam(ctx *fasthttp.RequestCtx, key string) (string, error) {
	val := ctx.UserValue(key)
	if val == nil {
		return "", fmt.Errorf("%s is required", key)
	}

	return fmt.Sprint(val), nil
}

func pathParamInt64(ctx *fasthttp.RequestCtx, key string) (int64, error) {
	val, err := pathParam(ctx, key)
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return id, nil
}

// uploadedFile returns the multipart "file" field when the request is a form
// upload and the raw body otherwise.
func uploadedFile(ctx *fasthttp.RequestCtx) ([]byte, error) {
	if !ctx.IsPost() || !isMultipart(ctx) {
		return ctx.PostBody(), nil
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func isMultipart(ctx *fasthttp.RequestCtx) bool {
	return bytes.HasPrefix(ctx.Request.Header.ContentType(), []byte("multipart/form-data"))
}
