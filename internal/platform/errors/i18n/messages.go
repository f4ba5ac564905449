package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeOwnershipViolation = "OWNERSHIP_VIOLATION"
	CodeInvalidState       = "INVALID_STATE"
	CodeAlreadyCorrected   = "ALREADY_CORRECTED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeLedgerAborted      = "LEDGER_ABORTED"
	CodeIllegalTransition  = "ILLEGAL_TRANSITION"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeHandshakeTimeout   = "HANDSHAKE_TIMEOUT"
)

var enUS = map[Code]string{
	CodeOwnershipViolation: "That record belongs to another club.",
	CodeInvalidState:       "The match is {{.Phase}} and is not accepting events.",
	CodeAlreadyCorrected:   "That event has already been corrected.",
	CodeValidation:         "The request is invalid: {{.Reason}}.",
	CodeLedgerAborted:      "Recording for this match has been halted. Contact an administrator.",
	CodeIllegalTransition:  "A match cannot move from {{.FromPhase}} to {{.ToPhase}}.",
	CodeNotFound:           "The requested {{.Resource}} was not found.",
	CodeUnauthenticated:    "Sign in to continue.",
	CodeForbidden:          "You do not have access to this match.",
	CodeHandshakeTimeout:   "The connection took too long to authorize.",
}

var gaIE = map[Code]string{
	CodeOwnershipViolation: "Baineann an taifead sin le club eile.",
	CodeInvalidState:       "Tá an cluiche {{.Phase}} agus níl imeachtaí á nglacadh.",
	CodeAlreadyCorrected:   "Ceartaíodh an t-imeacht sin cheana.",
	CodeValidation:         "Tá an t-iarratas neamhbhailí: {{.Reason}}.",
	CodeLedgerAborted:      "Stopadh an taifeadadh don chluiche seo. Déan teagmháil le riarthóir.",
	CodeIllegalTransition:  "Ní féidir le cluiche bogadh ó {{.FromPhase}} go {{.ToPhase}}.",
	CodeNotFound:           "Níor aimsíodh an {{.Resource}}.",
	CodeUnauthenticated:    "Sínigh isteach chun leanúint ar aghaidh.",
	CodeForbidden:          "Níl rochtain agat ar an gcluiche seo.",
	CodeHandshakeTimeout:   "Thóg sé rófhada an nasc a údarú.",
}
