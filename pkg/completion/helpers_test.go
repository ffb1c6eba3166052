package completion_test

import (
	"bytes"
	"io"
	"net/http"
)

type capture struct {
	method string
	url    string
	body   []byte
	calls  int
}

// fakeTransport answers every request with a canned response, or with err
// when set.
type fakeTransport struct {
	respStatus  int
	respBody    []byte
	contentType string
	err         error
	captured    *capture
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var b []byte
	if req.Body != nil {
		b, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}
	if f.captured != nil {
		f.captured.method = req.Method
		f.captured.url = req.URL.String()
		f.captured.body = b
		f.captured.calls++
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	contentType := f.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	resp := &http.Response{
		StatusCode: f.respStatus,
		Body:       io.NopCloser(bytes.NewReader(f.respBody)),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", contentType)
	return resp, nil
}

func httpClient(rt http.RoundTripper) *http.Client {
	return &http.Client{Transport: rt}
}
