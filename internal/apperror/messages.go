package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Chain reads
	CodeEthereumConnectionFailed: "Failed to connect to chain node",
	CodeEthereumRPCError:         "Chain RPC call failed",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeInvalidContractResponse:  "Unexpected smart contract response",

	// Write validation
	CodeInvalidAddress:      "Invalid address",
	CodeInvalidAmount:       "Amount must be greater than zero",
	CodeInvalidBondType:     "Unknown bond type",
	CodeWalletNotConnected:  "Wallet is not connected",
	CodeSignerUnavailable:   "No signing key configured",
	CodeTxPending:           "Another transaction is still pending",
	CodeInvalidKeyFile:      "Invalid key file",
	CodeKeyDecryptionFailed: "Failed to decrypt key file",

	// Transaction lifecycle
	CodeGasEstimationFailed: "Transaction simulation failed",
	CodeTxSubmitFailed:      "Failed to submit transaction",
	CodeTxReverted:          "Transaction reverted",
	CodeTxConfirmFailed:     "Failed to confirm transaction",

	// Price feed
	CodePriceFetchFailed: "Failed to fetch price",
	CodePriceUnavailable: "Price is not available yet",
	CodeInvalidQuote:     "Invalid quote data",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Referral persistence
	CodeReferralStoreFailed: "Referral store error",

	// Notifications
	CodeNotificationFailed: "Failed to deliver notification",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
