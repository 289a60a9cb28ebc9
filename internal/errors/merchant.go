package errors

var (
	ErrMerchantNotFound      = notFound("MERCHANT_NOT_FOUND", "No merchant found.")
	ErrMerchantExists        = conflict("MERCHANT_EXISTS", "merchant account already exists")
	ErrStepAhead             = conflict("STEP_AHEAD", "Complete the current onboarding step first.")
	ErrDocumentRequired      = invalid("DOCUMENT_REQUIRED", "ID document is required.")
	ErrPackageNotFound       = notFound("PACKAGE_NOT_FOUND", "Package not found.")
	ErrPackageRequired       = invalid("PACKAGE_REQUIRED", "Package ID is required.")
	ErrInvalidStepTransition = conflict("INVALID_STEP_TRANSITION", "onboarding step cannot move to the requested state")
	ErrMerchantTransition    = conflict("INVALID_MERCHANT_TRANSITION", "merchant status cannot change to the requested state")
	ErrDocumentType          = invalid("INVALID_DOCUMENT_TYPE", "File extension not allowed. Allowed extensions are: pdf, jpg, jpeg, png.")
)
