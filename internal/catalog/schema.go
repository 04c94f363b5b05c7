package catalog

// The structs below document the shape of each kind. Records are stored
// untyped; these types only drive the required field policy and the schemas
// served to clients.

// Product is an item for sale.
type Product struct {
	ID          any     `json:"id,omitempty" jsonschema:"description=Assigned by the server"`
	Name        string  `json:"name" jsonschema:"required,minLength=1"`
	Category    string  `json:"category,omitempty" jsonschema:"description=Category name"`
	Price       float64 `json:"price" jsonschema:"required,minimum=0"`
	Description string  `json:"description,omitempty"`
	Image       *string `json:"image,omitempty" jsonschema:"description=Uploaded image path or external URL"`
	Stock       int64   `json:"stock,omitempty" jsonschema:"minimum=0"`
	Featured    bool    `json:"featured,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty" jsonschema:"format=date-time"`
	UpdatedAt   string  `json:"updatedAt,omitempty" jsonschema:"format=date-time"`
}

// Category groups products.
type Category struct {
	ID          any    `json:"id,omitempty" jsonschema:"description=Assigned by the server"`
	Name        string `json:"name" jsonschema:"required,minLength=1"`
	Slug        string `json:"slug,omitempty" jsonschema:"description=Derived from the name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty" jsonschema:"format=date-time"`
	UpdatedAt   string `json:"updatedAt,omitempty" jsonschema:"format=date-time"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID       any     `json:"id,omitempty" jsonschema:"description=Product id"`
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price" jsonschema:"required,minimum=0"`
	Quantity int64   `json:"quantity" jsonschema:"required,minimum=1"`
}

// Order is a customer checkout.
type Order struct {
	ID            any         `json:"id,omitempty" jsonschema:"description=Assigned by the server"`
	CustomerName  string      `json:"customerName" jsonschema:"required,minLength=1"`
	CustomerEmail string      `json:"customerEmail" jsonschema:"required,format=email"`
	Items         []OrderItem `json:"items" jsonschema:"required,minItems=1"`
	Total         float64     `json:"total,omitempty" jsonschema:"description=Derived from the items"`
	Status        string      `json:"status,omitempty" jsonschema:"enum=pending,enum=processing,enum=shipped,enum=delivered,enum=cancelled"`
	CreatedAt     string      `json:"createdAt,omitempty" jsonschema:"format=date-time"`
	UpdatedAt     string      `json:"updatedAt,omitempty" jsonschema:"format=date-time"`
}

// Contact is a message sent through the contact form.
type Contact struct {
	ID        any    `json:"id,omitempty" jsonschema:"description=Assigned by the server"`
	Name      string `json:"name" jsonschema:"required,minLength=1"`
	Email     string `json:"email" jsonschema:"required,format=email"`
	Message   string `json:"message" jsonschema:"required,minLength=1"`
	CreatedAt string `json:"createdAt,omitempty" jsonschema:"format=date-time"`
	UpdatedAt string `json:"updatedAt,omitempty" jsonschema:"format=date-time"`
}
