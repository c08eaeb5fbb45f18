package domain

// Product is a catalog entry. Price and stock keep the text the operator entered.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Stock       string `json:"stock"`
	Description string `json:"description,omitempty"`
}

// ProductDraft collects the fields of a product that is being created.
type ProductDraft struct {
	Name        string `json:"name,omitempty"`
	Price       string `json:"price,omitempty"`
	Stock       string `json:"stock,omitempty"`
	Description string `json:"description,omitempty"`
}

// Attribute is a catalog-wide attribute definition.
type Attribute struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductAttribute is the value of one attribute for one product.
type ProductAttribute struct {
	ProductID   int64  `json:"product_id"`
	AttributeID int64  `json:"attribute_id"`
	Value       string `json:"value"`
}

// AttributeValue is an attribute joined with the product's current value, if any.
type AttributeValue struct {
	AttributeID int64   `json:"attribute_id"`
	Name        string  `json:"name"`
	Value       *string `json:"value,omitempty"`
}

// Credential is an operator account as seen by the credential gate.
type Credential struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Role     string `json:"role"`
}
