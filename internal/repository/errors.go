package repository

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUser     = errors.New("username or email already registered")
	ErrGameNotFound      = errors.New("game not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrDuplicateCartItem = errors.New("game already in cart")
)
