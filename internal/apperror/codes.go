package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Chain client error codes
const (
	// Chain reads
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeInvalidContractResponse  Code = "INVALID_CONTRACT_RESPONSE"

	// Write validation
	CodeInvalidAddress      Code = "INVALID_ADDRESS"
	CodeInvalidAmount       Code = "INVALID_AMOUNT"
	CodeInvalidBondType     Code = "INVALID_BOND_TYPE"
	CodeWalletNotConnected  Code = "WALLET_NOT_CONNECTED"
	CodeSignerUnavailable   Code = "SIGNER_UNAVAILABLE"
	CodeTxPending           Code = "TX_PENDING"
	CodeInvalidKeyFile      Code = "INVALID_KEY_FILE"
	CodeKeyDecryptionFailed Code = "KEY_DECRYPTION_FAILED"

	// Transaction lifecycle
	CodeGasEstimationFailed Code = "GAS_ESTIMATION_FAILED"
	CodeTxSubmitFailed      Code = "TX_SUBMIT_FAILED"
	CodeTxReverted          Code = "TX_REVERTED"
	CodeTxConfirmFailed     Code = "TX_CONFIRM_FAILED"

	// Price feed
	CodePriceFetchFailed Code = "PRICE_FETCH_FAILED"
	CodePriceUnavailable Code = "PRICE_UNAVAILABLE"
	CodeInvalidQuote     Code = "INVALID_QUOTE"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Referral persistence
	CodeReferralStoreFailed Code = "REFERRAL_STORE_FAILED"

	// Notifications
	CodeNotificationFailed Code = "NOTIFICATION_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
