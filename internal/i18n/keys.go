// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"
	KeyWarning = "warning"

	// Authentication / session
	KeyAuthRequired         = "auth.required"
	KeyAuthInvalidToken     = "auth.invalid_token"
	KeyAuthTokenExpired     = "auth.token_expired"
	KeyAuthInvalidSignature = "auth.invalid_signature"
	KeyAuthNonceExpired     = "auth.nonce_expired"
	KeyAuthInvalidAddress   = "auth.invalid_address"
	KeyAuthLoginSuccess     = "auth.login_success"

	// Profiles
	KeyProfileUpdated  = "profile.updated"
	KeyProfileNotFound = "profile.not_found"

	// Streams
	KeyStreamCreated  = "stream.created"
	KeyStreamUpdated  = "stream.updated"
	KeyStreamDeleted  = "stream.deleted"
	KeyStreamNotFound = "stream.not_found"

	// Videos
	KeyVideoCreated  = "video.created"
	KeyVideoUpdated  = "video.updated"
	KeyVideoDeleted  = "video.deleted"
	KeyVideoNotFound = "video.not_found"

	// Access gate
	KeyAccessGranted         = "access.granted"
	KeyAccessPaymentRequired = "access.payment_required"
	KeyAccessContentNotFound = "access.content_not_found"

	// Payments
	KeyPaymentSuccess           = "payment.success"
	KeyPaymentFailed            = "payment.failed"
	KeyPaymentRejected          = "payment.rejected"
	KeyPaymentWalletNotReady    = "payment.wallet_not_ready"
	KeyPaymentInvalidRecipient  = "payment.invalid_recipient"
	KeyPaymentInvalidAmount     = "payment.invalid_amount"
	KeyPaymentNotVerified       = "payment.not_verified"
	KeyPaymentRecordSyncWarning = "payment.record_sync_warning"

	// Subscriptions
	KeySubscriptionAdded   = "subscription.added"
	KeySubscriptionRemoved = "subscription.removed"
	KeySubscriptionSelf    = "subscription.self"

	// Chat
	KeyChatMessageSent = "chat.message_sent"
	KeyChatNotFound    = "chat.stream_not_found"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
)
