package xgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// defaultUpstreamTimeout 代码生成是慢操作，默认超时远大于普通 API 调用。
const defaultUpstreamTimeout = 2 * time.Minute

// HTTPUpstream 通过 HTTP 访问远端生成服务的 Upstream 实现。
// 请求与响应体均为本包的 JSON 模型。
type HTTPUpstream struct {
	endpoint string
	client   *http.Client
}

// NewHTTPUpstream 创建 HTTP 上游客户端。
// client 为 nil 时使用带默认超时的独立客户端。
func NewHTTPUpstream(endpoint string, client *http.Client) (*HTTPUpstream, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty endpoint", ErrNilUpstream)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultUpstreamTimeout}
	}
	return &HTTPUpstream{endpoint: endpoint, client: client}, nil
}

// Invoke 实现 [Upstream]。
// 4xx 响应视为不可重试（请求本身有问题），5xx 与网络错误视为瞬时。
func (u *HTTPUpstream) Invoke(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, Permanent(fmt.Errorf("xgateway: encoding upstream request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := u.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("xgateway: upstream request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	switch {
	case httpResp.StatusCode >= 500:
		return nil, fmt.Errorf("xgateway: upstream returned %d", httpResp.StatusCode)
	case httpResp.StatusCode >= 400:
		return nil, Permanent(fmt.Errorf("xgateway: upstream rejected request with %d", httpResp.StatusCode))
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("xgateway: decoding upstream response: %w", err)
	}
	return &resp, nil
}

var _ Upstream = (*HTTPUpstream)(nil)
