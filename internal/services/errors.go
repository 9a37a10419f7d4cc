package services

import (
	"errors"
	"fmt"

	"superloja/internal/repos"
)

var (
	ErrBadCreds          = errors.New("invalid email or password")
	ErrEmailTaken        = errors.New("email already registered")
	ErrWeakPassword      = errors.New("password does not meet the requirements")
	ErrCartEmpty         = errors.New("cart empty")
	ErrInsufficientStock = repos.ErrInsufficientStock
	ErrNotFound          = repos.ErrNotFound
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")

	ErrNotAuction         = errors.New("product is not an auction")
	ErrAuctionsDisabled   = errors.New("auctions are disabled")
	ErrAuctionNotStarted  = errors.New("auction has not started")
	ErrAuctionClosed      = errors.New("auction closed")
	ErrBidTooLow          = errors.New("bid below minimum")
	ErrBidConflict        = errors.New("auction changed, try again")
	ErrOwnAuctionWinning  = errors.New("you already hold the winning bid")
	ErrChatbotDisabled    = errors.New("chatbot disabled")
	ErrStoreInMaintenance = errors.New("store in maintenance")
)

// ErrNotOwner reads as ErrNotFound to callers; handlers may log it as a denial.
var ErrNotOwner = fmt.Errorf("%w: not the owner", ErrNotFound)
