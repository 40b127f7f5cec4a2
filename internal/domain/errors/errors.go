package errors

import "errors"

// Not-found class.
var (
	ErrBranchNotFound    = errors.New("branch not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrAddonNotFound     = errors.New("addon not found")
	ErrVariationNotFound = errors.New("variation not found")
	ErrOptionNotFound    = errors.New("variation option not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrNotFound          = errors.New("not found")
)

// Validation class.
var (
	ErrEmptyOrder           = errors.New("no products in order")
	ErrInvalidAddon         = errors.New("invalid addon")
	ErrInvalidVariation     = errors.New("invalid variation")
	ErrInvalidOption        = errors.New("invalid variation option")
	ErrInvalidOptionCount   = errors.New("invalid variation options number")
	ErrRequiredVariation    = errors.New("variation is required")
	ErrScheduleTimeRequired = errors.New("scheduled at is required")
	ErrScheduleInPast       = errors.New("invalid scheduled at")
	ErrInsufficientStock    = errors.New("insufficient stock")
)

// Authorization class.
var ErrNotOwner = errors.New("not the order owner")

// Conflict class.
var (
	ErrSameStatus       = errors.New("order already has this status")
	ErrAlreadyCancelled = errors.New("order is already cancelled")
)

// Configuration class: a defect in catalog data, never a user input error.
var ErrUnknownStockPolicy = errors.New("unknown stock policy")
