package models

import (
	"encoding/base64"
	"strconv"
)

type PageInfo struct {
	StartCursor string `json:"startCursor"`
	EndCursor   string `json:"endCursor"`
	HasNextPage *bool  `json:"hasNextPage,omitempty"`
}

func DecodeCursor(cursor *string) (string, error) {
	decodedCursor := ""
	if cursor != nil && *cursor != "" {
		b, err := base64.StdEncoding.DecodeString(*cursor)
		if err != nil {
			return decodedCursor, err
		}
		decodedCursor = string(b)
	}
	return decodedCursor, nil
}

func EncodeCursor(cursor string) string {
	return base64.StdEncoding.EncodeToString([]byte(cursor))
}

func idCursor(id int) string {
	return strconv.Itoa(id)
}

// page sizes used by the listing screens
const (
	DefaultPurchasePageSize    = 8
	DefaultStockPageSize       = 20
	DefaultMachineLoadPageSize = 15
	MaxPageSize                = 100
)

func pageLimit(limit int, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
