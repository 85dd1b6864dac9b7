// Package model defines the marketplace entities (Account, Product, CartLine, Purchase),
// the closed category set and the coded error type shared by all stores.
package model
