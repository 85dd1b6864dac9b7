// Package cart implements the per-account cart and purchase history.
//
// Keys:
//
//	cart:{accountId}       ordered cart lines, absent when the cart is empty
//	purchases:{accountId}  purchase history, append only
//
// The store never decides who is logged in. It asks an ActiveAccount provider (the
// session store) on every call, so logging in as another account switches the visible
// cart and history. Refusing to add a seller's own product is left to the caller.
package cart
