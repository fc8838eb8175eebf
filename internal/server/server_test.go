package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/huescheme/internal/analysis"
	"github.com/jmylchreest/huescheme/internal/cache"
	"github.com/jmylchreest/huescheme/internal/config"
)

func testConfig() config.ServerConfig {
	cfg := config.Defaults().Server
	cfg.Addr = "127.0.0.1:0"
	cfg.RateLimit = 0
	return cfg
}

func newTestServer(t *testing.T, modify func(*Options)) *Server {
	t.Helper()
	a, err := analysis.New(analysis.DefaultOptions())
	require.NoError(t, err)

	opts := Options{
		Config:   testConfig(),
		Analyzer: a,
	}
	if modify != nil {
		modify(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func encodePNG(t *testing.T, w, h int, fill func(x, y int) color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, fill(x, y))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	return encodePNG(t, w, h, func(int, int) color.Color { return c })
}

func stripedPNG(t *testing.T) []byte {
	stripes := []color.Color{
		color.NRGBA{230, 57, 70, 255}, color.NRGBA{29, 53, 87, 255}, color.NRGBA{241, 250, 238, 255},
		color.NRGBA{168, 218, 220, 255}, color.NRGBA{69, 123, 157, 255},
	}
	return encodePNG(t, 10, 10, func(x, y int) color.Color { return stripes[(x+y)%len(stripes)] })
}

// uploadRequest builds a multipart request with one file part.
func uploadRequest(t *testing.T, field, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="upload.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, AnalyzePath, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func TestNew_Validation(t *testing.T) {
	a, err := analysis.New(analysis.DefaultOptions())
	require.NoError(t, err)

	_, err = New(Options{Config: testConfig()})
	assert.Error(t, err, "missing analyzer")

	cfg := testConfig()
	cfg.MaxConcurrent = 0
	_, err = New(Options{Config: cfg, Analyzer: a})
	assert.Error(t, err, "zero concurrency")

	cfg = testConfig()
	cfg.MaxUploadBytes = 0
	_, err = New(Options{Config: cfg, Analyzer: a})
	assert.Error(t, err, "zero upload size")

	cfg = testConfig()
	cfg.MaxPixels = -1
	_, err = New(Options{Config: cfg, Analyzer: a})
	assert.Error(t, err, "negative pixel limit")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, HealthPath, nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := serve(s, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestAnalyze_Success(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "image", "image/png", stripedPNG(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Palette        map[string]map[string]any `json:"palette"`
		TailwindConfig string                    `json:"tailwindConfig"`
		CSSVariables   string                    `json:"cssVariables"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Palette, 5)
	for _, role := range []string{"primary", "secondary", "accent", "background", "text"} {
		require.Contains(t, resp.Palette, role)
		assert.Regexp(t, `^#[0-9a-f]{6}$`, resp.Palette[role]["hex"])
		assert.NotEmpty(t, resp.Palette[role]["name"])
		assert.NotEmpty(t, resp.Palette[role]["usage"])
	}
	assert.True(t, strings.HasPrefix(resp.TailwindConfig, "module.exports"))
	assert.True(t, strings.HasPrefix(resp.CSSVariables, ":root {"))
}

func TestAnalyze_UniformRed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "image", "image/png", solidPNG(t, 10, 10, color.NRGBA{255, 0, 0, 255})))
	require.Equal(t, http.StatusOK, rec.Code)

	var result analysis.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "#ff0000", result.Palette.Background.Hex)
	assert.Equal(t, "Red", result.Palette.Primary.Name)
}

func TestAnalyze_Errors(t *testing.T) {
	pngData := stripedPNG(t)

	tests := []struct {
		name     string
		maxBytes int64
		maxPix   int
		req      func(t *testing.T) *http.Request
		wantCode int
		wantMsg  string
	}{
		{
			name:     "wrong field",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "file", "image/png", pngData) },
			wantCode: http.StatusBadRequest,
			wantMsg:  "No image provided",
		},
		{
			name: "not multipart",
			req: func(*testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, AnalyzePath, strings.NewReader(`{"image":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantCode: http.StatusBadRequest,
			wantMsg:  "No image provided",
		},
		{
			name:     "over default limit",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "image", "image/png", make([]byte, 5*1024*1024+1)) },
			wantCode: http.StatusBadRequest,
			wantMsg:  "File size exceeds 5MB limit",
		},
		{
			name:     "over custom limit",
			maxBytes: 100,
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "image", "image/png", pngData) },
			wantCode: http.StatusBadRequest,
			wantMsg:  "File size exceeds 100 byte limit",
		},
		{
			name:     "body far over limit",
			maxBytes: 100,
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "image", "image/png", make([]byte, 256*1024)) },
			wantCode: http.StatusBadRequest,
			wantMsg:  "File size exceeds 100 byte limit",
		},
		{
			name:     "gif declared",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "image", "image/gif", pngData) },
			wantCode: http.StatusBadRequest,
			wantMsg:  "Invalid file type. Please upload a JPG, PNG, or WebP image",
		},
		{
			name:     "not an image",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "image", "image/png", []byte("hello world")) },
			wantCode: http.StatusBadRequest,
			wantMsg:  "Invalid file type. Please upload a JPG, PNG, or WebP image",
		},
		{
			name:     "truncated png",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "image", "image/png", pngData[:40]) },
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Failed to analyze image colors",
		},
		{
			name:     "over pixel limit",
			maxPix:   99,
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "image", "image/png", pngData) },
			wantCode: http.StatusBadRequest,
			wantMsg:  "Image dimensions exceed 99 pixel limit",
		},
		{
			name: "large raster in a small file",
			req: func(t *testing.T) *http.Request {
				var buf bytes.Buffer
				require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4000, 4000))))
				return uploadRequest(t, "image", "image/png", buf.Bytes())
			},
			wantCode: http.StatusBadRequest,
			wantMsg:  "Image dimensions exceed 12000000 pixel limit",
		},
		{
			name: "too few pixels",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "image", "image/png", solidPNG(t, 2, 1, color.NRGBA{0, 255, 0, 255}))
			},
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "insufficient pixels",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, func(o *Options) {
				if tt.maxBytes > 0 {
					o.Config.MaxUploadBytes = tt.maxBytes
				}
				if tt.maxPix > 0 {
					o.Config.MaxPixels = tt.maxPix
				}
			})

			rec := serve(s, tt.req(t))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.wantMsg)
		})
	}
}

func TestAnalyze_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, AnalyzePath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyze_Busy(t *testing.T) {
	s := newTestServer(t, nil)
	require.NoError(t, s.sem.Acquire(context.Background(), int64(s.config.MaxConcurrent)))
	defer s.sem.Release(int64(s.config.MaxConcurrent))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := uploadRequest(t, "image", "image/png", stripedPNG(t)).WithContext(ctx)

	rec := serve(s, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(o *Options) {
		o.Config.RateLimit = 1
		o.Config.RateBurst = 1
	})

	first := serve(s, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := serve(s, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestAnalyze_CachesResults(t *testing.T) {
	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	s := newTestServer(t, func(o *Options) { o.Cache = store })
	data := stripedPNG(t)

	first := serve(s, uploadRequest(t, "image", "image/png", data))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Len(t, mr.Keys(), 1)

	second := serve(s, uploadRequest(t, "image", "image/png", data))
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Len(t, mr.Keys(), 1)
}

func TestAnalyze_CacheDownStillServes(t *testing.T) {
	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	s := newTestServer(t, func(o *Options) { o.Cache = store })
	mr.Close()

	rec := serve(s, uploadRequest(t, "image", "image/png", stripedPNG(t)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, func(o *Options) {
		o.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}
	})

	serve(s, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "huescheme_http_requests_total")

	disabled := newTestServer(t, nil)
	rec = serve(disabled, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + HealthPath)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
}
