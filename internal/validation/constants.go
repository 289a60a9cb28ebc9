package validation

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72

	MaxNameLength    = 200
	MaxPhoneLength   = 20
	MaxCityLength    = 100
	MaxLypayLength   = 20
	MaxIBANLength    = 50
	MaxTitleLength   = 200
	MaxInvoiceNumber = 50
)

// DocumentExtensions lists the upload extensions accepted for verification documents.
var DocumentExtensions = []string{"pdf", "jpg", "jpeg", "png"}
