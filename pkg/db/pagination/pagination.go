// Package pagination implements opaque token pagination shared by list
// endpoints.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidToken marks a page token the server did not issue.
var ErrInvalidToken = errors.New("invalid_page_token")

const (
	// DefaultPageSize applies when the caller omits page_size.
	DefaultPageSize = 25
	// MaxPageSize caps page_size to keep list scans bounded.
	MaxPageSize = 200
)

// Pagination carries the raw query parameters for a list request.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// PageInfo is echoed back on every paginated response.
type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	TotalCount    int64  `json:"total_count"`
}

// Window resolves the pagination parameters into an offset and limit.
func (p Pagination) Window() (offset int, limit int, err error) {
	limit = p.PageSize
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if strings.TrimSpace(p.PageToken) == "" {
		return 0, limit, nil
	}
	offset, err = DecodeToken(p.PageToken)
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

// EncodeToken builds the opaque token for the next page offset.
func EncodeToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte("o:" + strconv.Itoa(offset)))
}

// DecodeToken parses a token produced by EncodeToken.
func DecodeToken(token string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return 0, ErrInvalidToken
	}
	s, ok := strings.CutPrefix(string(raw), "o:")
	if !ok {
		return 0, ErrInvalidToken
	}
	offset, err := strconv.Atoi(s)
	if err != nil || offset < 0 {
		return 0, ErrInvalidToken
	}
	return offset, nil
}

// NextToken returns the token for the page after the given window, or ""
// when the window reaches the end of the result set.
func NextToken(offset, limit int, total int64) string {
	next := offset + limit
	if int64(next) >= total {
		return ""
	}
	return EncodeToken(next)
}
