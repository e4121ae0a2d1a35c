package walletview

// Sign is the display direction of a classified transaction amount.
type Sign int

const (
	SignPositive Sign = 1
	SignNegative Sign = -1
)

// Prefix returns the rendered sign prefix.
func (sign Sign) Prefix() string {
	if sign == SignNegative {
		return "-"
	}
	return "+"
}

// Presentation icon tokens, matching the dashboard icon set.
const (
	IconInbound  = "arrow-down-left"
	IconOutbound = "arrow-up-right"
)

// Presentation color tokens.
const (
	ColorSuccess     = "emerald"
	ColorWarning     = "amber"
	ColorNeutral     = "slate"
	ColorDestructive = "red"
)

// Descriptor carries the presentation semantics of a transaction type.
type Descriptor struct {
	Icon       string `json:"icon"`
	ColorClass string `json:"color"`
	Sign       Sign   `json:"sign"`
}

// Badge carries the presentation semantics of a transaction status.
type Badge struct {
	Label      string `json:"label"`
	ColorClass string `json:"color"`
	Animated   bool   `json:"animated"`
}

// Classify maps a transaction type to its presentation descriptor.
// Deposits are inbound and positive; withdrawals and transfers are
// outbound and negative. Unknown types fail open to an inbound icon
// with neutral color so a new backend enum never breaks rendering.
func Classify(transactionType TransactionType) Descriptor {
	switch transactionType {
	case TransactionDeposit:
		return Descriptor{Icon: IconInbound, ColorClass: ColorSuccess, Sign: SignPositive}
	case TransactionWithdrawal, TransactionTransfer:
		return Descriptor{Icon: IconOutbound, ColorClass: ColorWarning, Sign: SignNegative}
	default:
		return Descriptor{Icon: IconInbound, ColorClass: ColorNeutral, Sign: SignPositive}
	}
}

// StatusBadge maps a transaction status to its badge descriptor. The
// second return reports whether a badge should render at all; unknown
// statuses render nothing.
func StatusBadge(status TransactionStatus) (Badge, bool) {
	switch status {
	case StatusCompleted:
		return Badge{Label: "Completed", ColorClass: ColorSuccess}, true
	case StatusPending:
		return Badge{Label: "Pending", ColorClass: ColorWarning, Animated: true}, true
	case StatusFailed:
		return Badge{Label: "Failed", ColorClass: ColorDestructive}, true
	default:
		return Badge{}, false
	}
}
