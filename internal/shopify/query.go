package shopify

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// MaxLineItems is the number of line items requested per order.
const MaxLineItems = 100

// orderNameVariable is the variable carrying the order name search string.
const orderNameVariable = "order_name_query"

// orderLineItemsQuery selects the line items of the first order matching a
// name search.
var orderLineItemsQuery = heredoc.Docf(`
	query OrderLineItems($%s: String) {
		orders(first: 1, query: $%s) {
			edges {
				node {
					lineItems(first: %d) {
						edges {
							node {
								sku
								product {
									legacyResourceId
								}
							}
						}
					}
				}
			}
		}
	}
`, orderNameVariable, orderNameVariable, MaxLineItems)

// orderLineItemsOperation is the parsed form of orderLineItemsQuery.
// A query that does not parse is a programming error and stops the program
// at start-up rather than at the first lookup.
var orderLineItemsOperation = mustParseOperation(orderLineItemsQuery)

// mustParseOperation parses a single-operation query document and checks that
// it declares the order name variable.
func mustParseOperation(query string) *ast.OperationDefinition {
	doc, err := parser.ParseQuery(&ast.Source{Name: "OrderLineItems", Input: query})
	if err != nil {
		panic(fmt.Sprintf("shopify: invalid order query: %v", err))
	}
	if len(doc.Operations) != 1 {
		panic(fmt.Sprintf("shopify: expected one operation, got %d", len(doc.Operations)))
	}
	op := doc.Operations[0]
	if op.VariableDefinitions.ForName(orderNameVariable) == nil {
		panic("shopify: order query does not declare $" + orderNameVariable)
	}
	return op
}

// OrderNameQuery returns the order search string for an order number, e.g.
// "name:1001-QDO" for number "1001" and suffix "-QDO".
func OrderNameQuery(orderNumber, suffix string) string {
	return "name:" + orderNumber + suffix
}
