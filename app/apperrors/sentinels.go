package apperrors

var (
	ErrProductNotFound  = New(KindNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrCartItemNotFound = New(KindNotFound, "CART_ITEM_NOT_FOUND", "cart item not found")
	ErrOrderNotFound    = New(KindNotFound, "ORDER_NOT_FOUND", "order not found")
	ErrUserNotFound     = New(KindNotFound, "USER_NOT_FOUND", "user not found")

	ErrInvalidQuantity = New(KindValidation, "INVALID_QUANTITY", "quantity must be at least 1")
	ErrInvalidSize     = New(KindValidation, "INVALID_SIZE", "size is not offered for this product")
	ErrInvalidRating   = New(KindValidation, "INVALID_RATING", "rating must be between 1 and 5")
	ErrInvalidStatus   = New(KindValidation, "INVALID_STATUS", "unknown order status")

	ErrOutOfStock          = New(KindBusinessRule, "OUT_OF_STOCK", "product is out of stock")
	ErrInsufficientStock   = New(KindBusinessRule, "INSUFFICIENT_STOCK", "not enough stock available")
	ErrEmptyCart           = New(KindBusinessRule, "EMPTY_CART", "cart is empty")
	ErrAlreadyReviewed     = New(KindBusinessRule, "ALREADY_REVIEWED", "you have already reviewed this product")
	ErrNotEligibleToReview = New(KindBusinessRule, "NOT_ELIGIBLE", "only customers with a delivered order can review this product")
	ErrAlreadyInWishlist   = New(KindBusinessRule, "ALREADY_IN_WISHLIST", "product is already in your wishlist")
	ErrInvalidTransition   = New(KindBusinessRule, "INVALID_TRANSITION", "order status cannot change")
	ErrEmailTaken          = New(KindBusinessRule, "EMAIL_TAKEN", "email is already registered")
	ErrDuplicateCartEntry  = New(KindBusinessRule, "DUPLICATE_CART_ENTRY", "cart already holds this product in that size")

	ErrStockConflict = New(KindConflict, "STOCK_CONFLICT", "product stock changed concurrently, please retry")
	ErrOrderConflict = New(KindConflict, "ORDER_CONFLICT", "order status changed concurrently, please retry")
	ErrCartConflict  = New(KindConflict, "CART_CONFLICT", "cart changed concurrently, please retry")

	ErrNotOwner     = New(KindForbidden, "FORBIDDEN", "you do not own this resource")
	ErrRoleRequired = New(KindForbidden, "ROLE_REQUIRED", "your account cannot perform this action")

	ErrInvalidCredentials = New(KindUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrInvalidToken       = New(KindUnauthorized, "INVALID_TOKEN", "missing or invalid token")
)
