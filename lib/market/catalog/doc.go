// Package catalog implements the global product catalog. All products of all sellers
// live in one collection under the "products" key, in insertion order.
//
// Only the seller of a product may update or delete it; the store checks this itself
// and returns model.ErrForbidden. Filter is a pure function used for browsing.
package catalog
