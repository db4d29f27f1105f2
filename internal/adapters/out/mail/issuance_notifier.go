package mail

import (
	"context"
	"fmt"
	"strings"

	sc "solusd/internal/domain/stablecoin"
)

// IssuanceNotifier mails the operator about confirmed and failed operations.
type IssuanceNotifier struct {
	sender EmailSender
	from   string
	to     string
}

func NewIssuanceNotifier(sender EmailSender, from, to string) *IssuanceNotifier {
	return &IssuanceNotifier{
		sender: sender,
		from:   strings.TrimSpace(from),
		to:     strings.TrimSpace(to),
	}
}

func (n *IssuanceNotifier) NotifySuccess(ctx context.Context, r sc.Receipt) error {
	subject := fmt.Sprintf("[%s] %s confirmed: %s %s", sc.Symbol, r.Type, r.TokenAmount.StringFixed(sc.Decimals), sc.Symbol)

	var b strings.Builder
	fmt.Fprintf(&b, "Operation:  %s\n", r.Type)
	fmt.Fprintf(&b, "Wallet:     %s\n", r.Wallet)
	fmt.Fprintf(&b, "Amount:     %s %s\n", r.TokenAmount.StringFixed(sc.Decimals), sc.Symbol)
	fmt.Fprintf(&b, "SOL:        %s\n", r.SOLDisplay())
	fmt.Fprintf(&b, "Rate:       %s %s/SOL\n", r.Rate.String(), sc.Symbol)
	fmt.Fprintf(&b, "Mint:       %s\n", r.Mint)
	fmt.Fprintf(&b, "Signature:  %s\n", r.Signature)
	fmt.Fprintf(&b, "Explorer:   %s\n", r.ExplorerURL)
	fmt.Fprintf(&b, "Time:       %s\n", r.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))

	return n.sender.Send(ctx, n.from, n.to, subject, b.String())
}

func (n *IssuanceNotifier) NotifyFailure(ctx context.Context, op sc.OperationType, wallet string, cause error) error {
	subject := fmt.Sprintf("[%s] %s failed", sc.Symbol, op)

	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	body := fmt.Sprintf("Operation:  %s\nWallet:     %s\nError:      %s\n", op, wallet, reason)

	return n.sender.Send(ctx, n.from, n.to, subject, body)
}
