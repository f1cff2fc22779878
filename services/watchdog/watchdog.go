// Package watchdog emails an operator when a crawl suggests the site's
// markup changed. Fetch failures and the odd unparsable page are
// routine for a scraper, a wave of structural mismatches is not: it
// means the selectors themselves are stale and a human has to look.
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/clessn/scrapessn/lib/scrapers/gnod"
	"github.com/clessn/scrapessn/services/crawler"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/watchdog")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Options struct {
	Smtp SmtpConfig
	// where alerts go
	OperatorEmail string
	// the site named in the alert, e.g. "https://www.music-map.com"
	Origin string
	// alert when a report carries at least this many structural
	// mismatches, defaults to 1
	Threshold int
	// minimum time between two alert emails, defaults to 6h. scheduled
	// crawls retry long before anyone can push a fix, repeating the
	// same alert every run helps nobody.
	Cooldown time.Duration
}

type Service struct {
	config Options

	mu        sync.Mutex
	lastAlert time.Time
}

func NewService(options Options) *Service {
	if options.Threshold <= 0 {
		options.Threshold = 1
	}
	if options.Cooldown <= 0 {
		options.Cooldown = 6 * time.Hour
	}
	return &Service{config: options}
}

// Enabled reports whether the watchdog has enough configuration to
// send anything. An unconfigured watchdog inspects reports and does
// nothing, so callers never need to special-case it.
func (s *Service) Enabled() bool {
	return s.config.Smtp.Server != "" && s.config.OperatorEmail != ""
}

// Inspect looks at a finished crawl's report and sends an alert email
// if it crossed the structural-mismatch threshold. Returns an error
// only when an alert was warranted and sending it failed.
func (s *Service) Inspect(ctx context.Context, report crawler.Report) error {
	ctx, span := tracer.Start(ctx, "Inspect")
	defer span.End()

	span.SetAttributes(
		attribute.String("run_id", report.RunId),
		attribute.Int("structure_errors", report.StructureErrors),
	)

	if !s.shouldAlert(report) {
		return nil
	}
	if !s.Enabled() {
		slog.WarnContext(ctx, "structural mismatches found but watchdog is not configured",
			"run_id", report.RunId,
			"count", report.StructureErrors,
		)
		return nil
	}

	s.mu.Lock()
	throttled := time.Since(s.lastAlert) < s.config.Cooldown
	s.mu.Unlock()
	if throttled {
		span.AddEvent("alert throttled")
		return nil
	}

	err := s.sendAlert(ctx, report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send alert")
		return err
	}

	s.mu.Lock()
	s.lastAlert = time.Now()
	s.mu.Unlock()

	slog.InfoContext(ctx, "sent structural mismatch alert",
		"run_id", report.RunId,
		"to", s.config.OperatorEmail,
	)
	return nil
}

func (s *Service) shouldAlert(report crawler.Report) bool {
	return report.StructureErrors >= s.config.Threshold
}

// how many failing refs the alert body lists before trailing off
const sampleSize = 5

func (s *Service) composeAlert(report crawler.Report) (subject, body string) {
	subject = fmt.Sprintf(
		"[scrapessn] %d structural mismatches on %s",
		report.StructureErrors, s.config.Origin,
	)

	var b strings.Builder
	fmt.Fprintf(
		&b,
		"Scrape run %s against %s hit %d structural mismatches out of %d pages attempted.\n\n",
		report.RunId, s.config.Origin,
		report.StructureErrors, report.PagesScraped+report.Failures(),
	)

	b.WriteString("Pages that no longer match the expected layout:\n")
	listed := 0
	for _, failure := range report.Failed {
		if !errors.Is(failure.Err, gnod.ErrStructuralMismatch) {
			continue
		}
		if listed == sampleSize {
			fmt.Fprintf(&b, "  ... and %d more\n", report.StructureErrors-listed)
			break
		}
		fmt.Fprintf(&b, "  - %s: %v\n", failure.Ref, failure.Err)
		listed++
	}

	b.WriteString("\nThe site's markup has likely changed and the scraper selectors need a look.\n")
	return subject, b.String()
}

func (s *Service) sendAlert(ctx context.Context, report crawler.Report) error {
	_, span := tracer.Start(ctx, "sendAlert")
	defer span.End()

	subject, body := s.composeAlert(report)

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("scrapessn watchdog <%s>", s.config.Smtp.EmailAddress)
	mail.To = []string{s.config.OperatorEmail}
	mail.Subject = subject
	mail.Text = []byte(body)

	err := mail.Send(
		fmt.Sprintf("%s:%d", s.config.Smtp.Server, s.config.Smtp.Port),
		smtp.PlainAuth("", s.config.Smtp.EmailAddress, s.config.Smtp.Password, s.config.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(fmt.Sprintf("%s:%d", s.config.Smtp.Server, s.config.Smtp.Port), nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
