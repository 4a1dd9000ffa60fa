package shopify

import (
	"encoding/json"

	"github.com/nao1215/reviewsku/internal/model"
)

// graphQLRequest is the POST body of a GraphQL request.
type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// orderLineItemsResponse is the typed response of the order query:
// data.orders.edges[].node.lineItems.edges[].node.{sku, product.legacyResourceId}.
type orderLineItemsResponse struct {
	Data   *orderLineItemsData `json:"data"`
	Errors GraphQLErrors       `json:"errors,omitempty"`
}

type orderLineItemsData struct {
	Orders *orderConnection `json:"orders"`
}

type orderConnection struct {
	Edges []orderEdge `json:"edges"`
}

type orderEdge struct {
	Node orderNode `json:"node"`
}

type orderNode struct {
	LineItems lineItemConnection `json:"lineItems"`
}

type lineItemConnection struct {
	Edges []lineItemEdge `json:"edges"`
}

type lineItemEdge struct {
	Node lineItemNode `json:"node"`
}

type lineItemNode struct {
	// SKU is null when the variant has no SKU.
	SKU *string `json:"sku"`

	// Product is null when the product was deleted after the order.
	Product *productNode `json:"product"`
}

type productNode struct {
	// LegacyResourceID is an UnsignedInt64 scalar, encoded as a JSON string by
	// the API. json.Number accepts both string and number encodings.
	LegacyResourceID json.Number `json:"legacyResourceId"`
}

// lineItems flattens the first order's line items.
// No matching order yields an empty, non-nil slice.
func (d *orderLineItemsData) lineItems() []model.OrderLineItem {
	items := make([]model.OrderLineItem, 0)
	if d == nil || d.Orders == nil || len(d.Orders.Edges) == 0 {
		return items
	}
	for _, edge := range d.Orders.Edges[0].Node.LineItems.Edges {
		var item model.OrderLineItem
		if edge.Node.SKU != nil {
			item.SKU = *edge.Node.SKU
		}
		if edge.Node.Product != nil {
			item.ProductID = edge.Node.Product.LegacyResourceID.String()
		}
		items = append(items, item)
	}
	return items
}
