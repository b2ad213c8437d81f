package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Pagination carries the cursor parameters of a list request. It is
// embedded into handler query structs and passed through to the
// repository layer.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

// Cursor is the decoded page token: the last row of the previous page,
// keyed by id and creation time.
type Cursor struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

func EncodeCursor(c Cursor) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid page token: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("invalid page token: %w", err)
	}
	return c, nil
}

// BuildCursorPageInfo inspects an over-fetched result set (pageSize+1
// rows requested) and produces the next token from the last row that
// will be returned. Callers trim the extra row themselves.
func BuildCursorPageInfo[T any](items []T, pageSize int32, tokenOf func(T) string) *PageInfo {
	if pageSize <= 0 {
		return nil
	}
	info := &PageInfo{}
	if len(items) > int(pageSize) {
		info.HasMore = true
		info.NextPageToken = tokenOf(items[pageSize-1])
	}
	return info
}
