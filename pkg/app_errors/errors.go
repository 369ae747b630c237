package apperrors

import (
	"errors"
	"net/http"
)

// Kind 決定錯誤對外呈現的 HTTP 狀態
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindBadRequest
	KindRetryable
)

func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Msg + ": " + e.cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is 讓 Wrap 出來的錯誤仍能用 errors.Is 對上原本的 sentinel
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

// Wrap 保留 sentinel 的 Kind 與訊息，並附上底層原因
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Msg: sentinel.Msg, cause: cause}
}

// KindOf 取出錯誤鏈中第一個 *Error 的 Kind，找不到時視為 Internal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Message 回傳可以給 client 看的訊息，未分類錯誤與底層原因不外洩
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Msg
	}
	return "Internal server error"
}

var (
	ErrCustomerNotFound    = New(KindNotFound, "Customer not found")
	ErrShowtimeNotFound    = New(KindNotFound, "Showtime not found")
	ErrDiscountNotFound    = New(KindNotFound, "Discount not found")
	ErrSeatNotFound        = New(KindNotFound, "Seat not found")
	ErrBookingNotFound     = New(KindNotFound, "Booking not found")
	ErrBookingSeatNotFound = New(KindNotFound, "Booking seat not found")
	ErrTicketNotFound      = New(KindNotFound, "Ticket not found")
	ErrPaymentNotFound     = New(KindNotFound, "Payment not found")
	ErrInvoiceNotFound     = New(KindNotFound, "Invoice not found")

	ErrSeatNotAvailable          = New(KindConflict, "Seat not available")
	ErrUnpaidBooking             = New(KindConflict, "Unpaid Booking")
	ErrTicketAlreadyUsed         = New(KindConflict, "Ticket already used")
	ErrShowtimeStarted           = New(KindConflict, "Showtime already started or expired")
	ErrDiscountNotUsable         = New(KindConflict, "Discount expired or usage limit reached")
	ErrInvoiceAlreadyExists      = New(KindConflict, "Invoice already exists")
	ErrBookingHasNoSeats         = New(KindConflict, "Booking has no seats")
	ErrInvalidBookingTransition  = New(KindConflict, "Invalid booking status transition")
	ErrInvalidPaymentTransition  = New(KindConflict, "Invalid payment status transition")
	ErrShowtimeChangeWithSeats   = New(KindConflict, "Showtime cannot change after seats are reserved")
	ErrDiscountLockedByInvoice   = New(KindConflict, "Discount cannot change after the invoice is issued")
	ErrSeatsLockedByInvoice      = New(KindConflict, "Seats cannot change after the invoice is issued")
	ErrInvalidPrice              = New(KindBadRequest, "base_price must not be negative and vat_rate must be between 0 and 1")
	ErrInvalidWebhookSignature   = New(KindBadRequest, "Invalid webhook signature")
	ErrMissingWebhookHeaders     = New(KindBadRequest, "Missing webhook headers")
	ErrInvalidWebhookPayload     = New(KindBadRequest, "Invalid webhook payload")
	ErrInvalidInput              = New(KindBadRequest, "Invalid request format")
	ErrProviderUnavailable       = New(KindRetryable, "Payment provider unavailable")
	ErrStripeNoRedirect          = New(KindInternal, "No checkout url returned by Stripe")
	ErrPayPalNoApproveLink       = New(KindInternal, "No approve link returned by PayPal")
	ErrInternalServerError       = New(KindInternal, "Internal server error")
	ErrUniqueCodeExhausted       = New(KindInternal, "Could not generate a unique code")
)
