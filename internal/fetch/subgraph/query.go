// Package subgraph is a small handwritten GraphQL query builder for the
// Polymarket matic-markets subgraph -- no generated client. Built around
// hand-assembled JSON payloads (the `sub := map[string]any{...}` pattern),
// generalized here into string-built GraphQL query bodies instead of a
// websocket subscription frame.
package subgraph

import (
	"fmt"
	"strings"
)

// MaxPageSize is the subgraph's hard pagination cap.
const MaxPageSize = 1000

// orderFilledEventsQuery composes the GraphQL body for the
// orderFilledEvents entity, filtered by the optional (from_ts, to_ts,
// token_id, maker, taker) and paginated via (first, skip).
func orderFilledEventsQuery(first, skip int, fromTS, toTS int64, tokenID, maker, taker, orderBy, orderDirection string) string {
	if first > MaxPageSize {
		first = MaxPageSize
	}

	var where []string
	if fromTS > 0 {
		where = append(where, fmt.Sprintf(`timestamp_gte: %d`, fromTS))
	}
	if toTS > 0 {
		where = append(where, fmt.Sprintf(`timestamp_lte: %d`, toTS))
	}
	if tokenID != "" {
		where = append(where, fmt.Sprintf(`makerAssetId: %q`, tokenID))
	}
	if maker != "" {
		where = append(where, fmt.Sprintf(`maker: %q`, strings.ToLower(maker)))
	}
	if taker != "" {
		where = append(where, fmt.Sprintf(`taker: %q`, strings.ToLower(taker)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = fmt.Sprintf(`, where: { %s }`, strings.Join(where, ", "))
	}
	if orderBy == "" {
		orderBy = "timestamp"
	}
	if orderDirection == "" {
		orderDirection = "desc"
	}

	return fmt.Sprintf(`{
	orderFilledEvents(first: %d, skip: %d, orderBy: %s, orderDirection: %s%s) {
		id
		transactionHash
		timestamp
		maker
		taker
		makerAssetId
		takerAssetId
		makerAmountFilled
		takerAmountFilled
	}
}`, first, skip, orderBy, orderDirection, whereClause)
}

// marketDatasQuery composes the GraphQL body for the marketDatas entity,
// which authoritatively maps token ids to condition ids.
func marketDatasQuery(first, skip int) string {
	if first > MaxPageSize {
		first = MaxPageSize
	}
	return fmt.Sprintf(`{
	marketDatas(first: %d, skip: %d) {
		id
		condition {
			id
		}
		outcomeIndex
	}
}`, first, skip)
}

// userBalancesQuery composes the GraphQL body for the userBalances entity
// for a given wallet address.
func userBalancesQuery(address string, first, skip int) string {
	if first > MaxPageSize {
		first = MaxPageSize
	}
	return fmt.Sprintf(`{
	userBalances(first: %d, skip: %d, where: { user: %q }) {
		id
		asset {
			id
		}
		balance
	}
}`, first, skip, strings.ToLower(address))
}

// metaQuery composes the _meta sync-status query.
func metaQuery() string {
	return `{
	_meta {
		block {
			number
		}
		hasIndexingErrors
	}
}`
}
