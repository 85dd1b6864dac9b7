package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

// NewID returns a fresh random identifier (UUIDv4)
func NewID() string {
	return uuid.NewString()
}

// --------------------------------------------------------------------------
// Accounts
// --------------------------------------------------------------------------

// Account is a registered user. PasswordHash is only set on the copy kept in the
// account registry; every Account handed out by the session store is Public().
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"passwordHash,omitempty"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	JoinedDate   time.Time `json:"joinedDate"`
}

// Public returns a copy without the password hash
func (a Account) Public() Account {
	a.PasswordHash = nil
	return a
}

// FullName joins first and last name, empty if neither is set
func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ProfilePatch holds the profile fields to change. Nil fields are kept.
type ProfilePatch struct {
	Username  *string
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
}

// --------------------------------------------------------------------------
// Products
// --------------------------------------------------------------------------

type Product struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       Category        `json:"category"`
	Price          decimal.Decimal `json:"price"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	SellerID       string          `json:"sellerId"`
	SellerUsername string          `json:"sellerUsername"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ProductFields are the seller editable fields of a new product
type ProductFields struct {
	Title       string
	Description string
	Category    Category
	Price       decimal.Decimal
	ImageURL    string
}

// Validate checks title, category and price
func (f ProductFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return Errorf(CodeInvalidInput, "title must not be empty")
	}
	if !f.Category.Valid() {
		return Errorf(CodeInvalidInput, "unknown category %q", f.Category)
	}
	if f.Price.IsNegative() {
		return Errorf(CodeInvalidInput, "price must not be negative")
	}
	return nil
}

// ProductPatch holds the product fields to change. Nil fields are kept.
type ProductPatch struct {
	Title       *string
	Description *string
	Category    *Category
	Price       *decimal.Decimal
	ImageURL    *string
}

// Empty reports whether the patch changes nothing
func (p ProductPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.Price == nil && p.ImageURL == nil
}

// Apply returns the fields of product with the patch merged in
func (p ProductPatch) Apply(product Product) ProductFields {
	f := ProductFields{
		Title:       product.Title,
		Description: product.Description,
		Category:    product.Category,
		Price:       product.Price,
		ImageURL:    product.ImageURL,
	}
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Price != nil {
		f.Price = *p.Price
	}
	if p.ImageURL != nil {
		f.ImageURL = *p.ImageURL
	}
	return f
}

// --------------------------------------------------------------------------
// Cart and purchases
// --------------------------------------------------------------------------

// CartLine is a product snapshot and its quantity (always >= 1)
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is price times quantity
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal sums the subtotals of all lines
func LinesTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount sums the quantities of all lines
func ItemCount(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// Purchase is a completed checkout. It is never changed after creation.
type Purchase struct {
	ID     string          `json:"id"`
	UserID string          `json:"userId"`
	Lines  []CartLine      `json:"products"`
	Total  decimal.Decimal `json:"total"`
	Date   time.Time       `json:"date"`
}
