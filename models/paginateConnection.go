package models

import (
	"strconv"

	"github.com/nexusvending/vending_backend/utils"
	"gorm.io/gorm"
)

type Cursor interface {
	GetCursor() string
}

type Edge[N Cursor] struct {
	Node   *N     `json:"node"`
	Cursor string `json:"cursor"`
}

type Connection[N Cursor] struct {
	PageInfo *PageInfo `json:"pageInfo"`
	Edges    []Edge[N] `json:"edges"`
}

// fetch results for pagination over an integer cursor column
func FetchPagePureCursor[T Cursor](dbCtx *gorm.DB,
	limit int,
	after *string,
	cursorColumn string,
	cmpOperator string,
) (*Connection[T], error) {

	nodes := make([]*T, 0)

	// order
	if cmpOperator == ">" {
		dbCtx = dbCtx.Order(cursorColumn)
	} else if cmpOperator == "<" {
		dbCtx = dbCtx.Order(cursorColumn + " DESC")
	}

	// filter
	decodedCursor, err := DecodeCursor(after)
	if err != nil {
		return nil, utils.NewValidationError("invalid cursor")
	}
	if decodedCursor != "" {
		v, err := strconv.Atoi(decodedCursor)
		if err != nil {
			return nil, utils.NewValidationError("invalid cursor")
		}
		dbCtx = dbCtx.Where(cursorColumn+" "+cmpOperator+" ?", v)
	}

	// db query
	if err = dbCtx.Limit(limit + 1).Find(&nodes).Error; err != nil {
		return nil, err
	}

	/*
		constructing edges & page info
	*/
	count := 0
	hasNextPage := false
	edges := make([]Edge[T], 0, len(nodes))
	for _, node := range nodes {
		if count == limit {
			hasNextPage = true
		}
		if count < limit {
			var edge Edge[T]
			edge.Node = node
			edge.Cursor = EncodeCursor((*node).GetCursor())
			edges = append(edges, edge)
			count++
		}
	}

	pageInfo := PageInfo{
		StartCursor: "",
		EndCursor:   "",
		HasNextPage: utils.NewFalse(),
	}
	if count > 0 {
		pageInfo = PageInfo{
			StartCursor: edges[0].Cursor,
			EndCursor:   edges[count-1].Cursor,
			HasNextPage: &hasNextPage,
		}
	}

	return &Connection[T]{PageInfo: &pageInfo, Edges: edges}, nil
}
