package sinks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/models"
	"github.com/username/taxledger/src/utils"
)

// EmailSink mails a plain-text summary of the run to the operator.
type EmailSink struct {
	mg          mailgun.Mailgun
	senderEmail string
	recipient   string
}

func NewEmailSink(domain, apiKey, senderEmail, recipient string) *EmailSink {
	return &EmailSink{
		mg:          mailgun.NewMailgun(domain, apiKey),
		senderEmail: senderEmail,
		recipient:   recipient,
	}
}

func (s *EmailSink) Publish(ctx context.Context, report *models.RunReport) error {
	subject := fmt.Sprintf("Tax ledger run %s: %d ledger entries, %d warnings",
		report.RunID[:8], len(report.Ledgers), len(report.Warnings))
	message := s.mg.NewMessage(s.senderEmail, subject, renderSummary(report), s.recipient)

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, id, err := s.mg.Send(sendCtx, message)
	if err != nil {
		logger.L.Error("Failed to send run summary via Mailgun", "error", err, "to", s.recipient, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	logger.L.Info("Run summary emailed", "to", s.recipient, "id", id, "runID", report.RunID)
	return nil
}

func renderSummary(report *models.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s generated %s (reporting currency %s)\n\n",
		report.RunID, report.GeneratedAt.Format(time.RFC3339), report.ReportingCurrency)

	fmt.Fprintf(&b, "Tax year ledgers:\n")
	for _, l := range report.Ledgers {
		fmt.Fprintf(&b, "  %d %-14s gain=%s dividends=%s withheld=%s interest=%s fees=%s\n",
			l.Year, l.ISIN,
			utils.RoundMoney(l.RealizedGain), utils.RoundMoney(l.DividendIncome),
			utils.RoundMoney(l.WithheldTax), utils.RoundMoney(l.InterestIncome),
			utils.RoundMoney(l.FeeExpense))
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintf(&b, "\nWarnings to resolve:\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "  [%s] %s %s: %s\n", w.Kind, utils.FormatDate(w.Date), w.ISIN, w.Message)
		}
	}
	return b.String()
}
