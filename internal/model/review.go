package model

// ProductIdentifier identifies the product all reviews of one export refer to.
// It is the commerce platform's legacy numeric product id, kept as a string
// because it is only ever compared, never computed with.
type ProductIdentifier string

// String returns the identifier as a plain string.
func (p ProductIdentifier) String() string {
	return string(p)
}

// ProductReview is a single review taken from a review platform export.
// Reviews are immutable once extracted.
type ProductReview struct {
	// ID is the review platform's identifier for the review.
	ID string `json:"id"`

	// OrderNumber is the commerce order number the review was left for.
	// An empty string means the export carried no order number.
	OrderNumber string `json:"order_number,omitempty"`

	// Title is the plain-text review title.
	Title string `json:"title,omitempty"`

	// Content is the plain-text review body.
	Content string `json:"content,omitempty"`

	// Row is the 1-based data row the review was read from.
	// The header row is not counted.
	Row int `json:"row"`
}

// HasOrderNumber reports whether the review can be resolved against an order.
func (r ProductReview) HasOrderNumber() bool {
	return r.OrderNumber != ""
}

// OrderLineItem is one purchased item of an order.
type OrderLineItem struct {
	// SKU is the stock keeping unit of the purchased variant.
	// It may be empty when the merchant never assigned one.
	SKU string `json:"sku"`

	// ProductID is the legacy id of the product the variant belongs to.
	ProductID string `json:"product_id"`
}
