package errors

// Payment links
var (
	ErrLinkNotFound      = notFound("LINK_NOT_FOUND", "payment link not found")
	ErrLinkNotValid      = &DomainError{Code: "LINK_NOT_VALID", Message: "This payment link is no longer valid.", Status: 410}
	ErrLinkQuotaExceeded = forbidden("LINK_QUOTA_EXCEEDED", "payment link limit reached for the current package")
)

// Transactions
var (
	ErrTransactionNotFound   = notFound("TRANSACTION_NOT_FOUND", "transaction not found")
	ErrInvalidTxnTransition  = conflict("INVALID_TRANSACTION_TRANSITION", "transaction status cannot change to the requested state")
	ErrInsufficientBalance   = invalid("INSUFFICIENT_BALANCE", "Invalid amount. Must be positive and <= available balance.")
	ErrInvalidAmount         = invalid("INVALID_AMOUNT", "Invalid amount. Must be positive and <= available balance.")
	ErrInvalidPayoutMethod   = invalid("INVALID_PAYOUT_METHOD", "payout method must be lypay or bank")
	ErrPayoutNotFound        = notFound("PAYOUT_NOT_FOUND", "payout not found")
	ErrInvalidPayoutTransfer = conflict("INVALID_PAYOUT_TRANSITION", "payout status cannot change to the requested state")
)

// Invoices
var (
	ErrInvoiceNotFound     = notFound("INVOICE_NOT_FOUND", "invoice not found")
	ErrInvoiceNumberTaken  = conflict("INVOICE_NUMBER_TAKEN", "invoice number already exists")
	ErrInvalidInvoiceItems = invalid("INVALID_INVOICE_ITEMS", "invoice items must have a positive quantity and a non-negative unit price")
)

// Messaging
var (
	ErrApiClientNotFound      = notFound("API_CLIENT_NOT_FOUND", "API client not found")
	ErrPhoneRequired          = invalid("PHONE_REQUIRED", "Phone number is required.")
	ErrInsufficientMessages   = invalid("INSUFFICIENT_MESSAGES", "Insufficient message balance.")
	ErrMessagePackageNotFound = notFound("MESSAGE_PACKAGE_NOT_FOUND", "Package not found.")
)
