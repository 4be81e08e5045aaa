package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/joulek/Backend-mtr/internal/clients"
	jobmetrics "github.com/joulek/Backend-mtr/internal/jobs"
	"github.com/joulek/Backend-mtr/internal/orders"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/platform/mail"
	"github.com/joulek/Backend-mtr/internal/platform/storage"
	"github.com/joulek/Backend-mtr/internal/quotations"
	"github.com/joulek/Backend-mtr/internal/reclamations"
	"github.com/joulek/Backend-mtr/internal/specrequests"
	"github.com/joulek/Backend-mtr/report"
)

const pdfContentType = "application/pdf"

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// QuotationSource loads quotations and records their rendered PDF.
type QuotationSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*quotations.Quotation, error)
	Get(ctx context.Context, number string) (*quotations.Quotation, error)
	SetDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error
}

// RequestSource loads requests and records their rendered PDF.
type RequestSource interface {
	Find(ctx context.Context, kind specrequests.Kind, id uuid.UUID) (*specrequests.SpecRequest, error)
	SetGeneratedDocument(ctx context.Context, kind specrequests.Kind, id uuid.UUID, doc storage.Document) error
}

// ReclamationSource loads claims and records their rendered PDF.
type ReclamationSource interface {
	Get(ctx context.Context, id uuid.UUID) (*reclamations.Reclamation, error)
	SetGeneratedDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error
}

// OrderSource loads confirmed orders.
type OrderSource interface {
	Get(ctx context.Context, id uuid.UUID) (*orders.Order, error)
}

// ClientLookup resolves client contact data.
type ClientLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (*clients.Client, error)
}

// FileStore reads and writes stored files.
type FileStore interface {
	Save(locator string, data []byte) (string, error)
	ReadAll(locator string) ([]byte, error)
}

// DocumentJobs renders PDFs for new records and sends the related notifications.
type DocumentJobs struct {
	Quotations   QuotationSource
	Requests     RequestSource
	Reclamations ReclamationSource
	Orders       OrderSource
	Clients      ClientLookup
	Renderer     report.Renderer
	Files        FileStore
	Mail         mail.Sender
	AdminEmail   string
	PublicURL    string
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
}

// Handlers lists the task handlers for worker registration.
func (j *DocumentJobs) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskQuotationIssued, Handler: j.HandleQuotationIssued},
		{Type: TaskSpecRequestSubmitted, Handler: j.HandleSpecRequestSubmitted},
		{Type: TaskReclamationFiled, Handler: j.HandleReclamationFiled},
		{Type: TaskOrderPlaced, Handler: j.HandleOrderPlaced},
	}
}

// HandleQuotationIssued renders and stores the quotation PDF, then emails it to the client
// when requested.
func (j *DocumentJobs) HandleQuotationIssued(ctx context.Context, t *asynq.Task) (err error) {
	var payload QuotationIssuedPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	tracker := j.metrics().Track(TaskQuotationIssued)
	defer func() { err = tracker.End(err) }()

	q, err := j.Quotations.GetByID(ctx, payload.QuotationID)
	if err != nil {
		return skipMissing(err)
	}
	logger := j.logger(TaskQuotationIssued).With(slog.String("number", q.Number))

	doc := report.QuotationDocument(q)
	pdf, stored, err := j.renderAndStore(ctx, "quotations/"+q.Number, doc)
	if err != nil {
		return err
	}
	if err := j.Quotations.SetDocument(ctx, q.ID, stored); err != nil {
		return fmt.Errorf("record quotation document: %w", err)
	}
	logger.Info("quotation rendered", slog.Int64("size", stored.Size))

	if !payload.SendEmail {
		return nil
	}
	if q.Client.Email == "" {
		logger.Warn("quotation email skipped, client has no address")
		return nil
	}
	text := fmt.Sprintf("Bonjour %s,\n\nVeuillez trouver ci-joint notre devis n° %s (total TTC : %s).\n\nCordialement,\n%s\n",
		q.Client.Name, q.Number, report.Money(q.Totals.TotalInclTax), report.CompanyName)
	msg := mail.Message{
		To:          []string{q.Client.Email},
		ReplyTo:     j.AdminEmail,
		Subject:     "Votre devis " + q.Number,
		Text:        text,
		Attachments: []mail.Attachment{{Filename: doc.Filename(), ContentType: pdfContentType, Data: pdf}},
	}
	if err := j.Mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("email quotation: %w", err)
	}
	logger.Info("quotation emailed", slog.String("to", q.Client.Email))
	return nil
}

// HandleSpecRequestSubmitted renders and stores the request PDF, then forwards it with the
// client's attachments to the office.
func (j *DocumentJobs) HandleSpecRequestSubmitted(ctx context.Context, t *asynq.Task) (err error) {
	var payload SpecRequestSubmittedPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	tracker := j.metrics().Track(TaskSpecRequestSubmitted)
	defer func() { err = tracker.End(err) }()

	req, err := j.Requests.Find(ctx, payload.Kind, payload.RequestID)
	if err != nil {
		return skipMissing(err)
	}
	logger := j.logger(TaskSpecRequestSubmitted).With(slog.String("number", req.Number), slog.String("kind", string(req.Kind)))
	client := j.client(ctx, logger, req.OwnerID)

	doc, err := report.RequestDocument(req, client)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	pdf, stored, err := j.renderAndStore(ctx, "requests/"+req.Number, doc)
	if err != nil {
		return err
	}
	if err := j.Requests.SetGeneratedDocument(ctx, req.Kind, req.ID, stored); err != nil {
		return fmt.Errorf("record request document: %w", err)
	}
	logger.Info("request rendered", slog.Int64("size", stored.Size))

	if j.AdminEmail == "" {
		return nil
	}
	attachments := []mail.Attachment{{Filename: doc.Filename(), ContentType: pdfContentType, Data: pdf}}
	attachments = append(attachments, j.readAttachments(logger, req.Attachments)...)
	text := fmt.Sprintf("Demande %s reçue de %s.\nType : %s\n%s", req.Number, clientName(client), req.Kind.Label(),
		j.link("/api/requests/"+string(req.Kind)+"/"+req.ID.String()))
	msg := mail.Message{
		To:          []string{j.AdminEmail},
		ReplyTo:     clientEmail(client),
		Subject:     fmt.Sprintf("Nouvelle demande de devis %s (%s)", req.Number, req.Kind.Label()),
		Text:        text,
		Attachments: attachments,
	}
	if err := j.Mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("email request: %w", err)
	}
	return nil
}

// HandleReclamationFiled renders and stores the claim PDF, then forwards it to the office with
// as many attachments as the size budget allows.
func (j *DocumentJobs) HandleReclamationFiled(ctx context.Context, t *asynq.Task) (err error) {
	var payload ReclamationFiledPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	tracker := j.metrics().Track(TaskReclamationFiled)
	defer func() { err = tracker.End(err) }()

	rec, err := j.Reclamations.Get(ctx, payload.ReclamationID)
	if err != nil {
		return skipMissing(err)
	}
	logger := j.logger(TaskReclamationFiled).With(slog.String("number", rec.Number))
	client := j.client(ctx, logger, rec.OwnerID)

	doc := report.ReclamationDocument(rec, client)
	pdf, stored, err := j.renderAndStore(ctx, "reclamations/"+rec.Number, doc)
	if err != nil {
		return err
	}
	if err := j.Reclamations.SetGeneratedDocument(ctx, rec.ID, stored); err != nil {
		return fmt.Errorf("record reclamation document: %w", err)
	}
	logger.Info("reclamation rendered", slog.Int64("size", stored.Size))

	if j.AdminEmail == "" {
		return nil
	}
	kept := reclamations.EmailAttachments(rec.Attachments, int64(len(pdf)))
	if skipped := nonEmpty(rec.Attachments) - len(kept); skipped > 0 {
		j.metrics().AddMailSkipped(TaskReclamationFiled, skipped)
		logger.Warn("attachments left out of notification", slog.Int("skipped", skipped))
	}
	attachments := []mail.Attachment{{Filename: doc.Filename(), ContentType: pdfContentType, Data: pdf}}
	attachments = append(attachments, j.readAttachments(logger, kept)...)
	text := fmt.Sprintf("Réclamation %s déposée par %s.\nDocument : %s %s\n%s",
		rec.Number, clientName(client), rec.Order.DocumentType.Label(), rec.Order.Number,
		j.link("/api/reclamations/"+rec.ID.String()))
	msg := mail.Message{
		To:          []string{j.AdminEmail},
		ReplyTo:     clientEmail(client),
		Subject:     "Nouvelle réclamation " + rec.Number,
		Text:        text,
		Attachments: attachments,
	}
	if err := j.Mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("email reclamation: %w", err)
	}
	return nil
}

// HandleOrderPlaced emails the office about a confirmed order with the client in copy. The
// quotation PDF is attached when it exists.
func (j *DocumentJobs) HandleOrderPlaced(ctx context.Context, t *asynq.Task) (err error) {
	var payload OrderPlacedPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	tracker := j.metrics().Track(TaskOrderPlaced)
	defer func() { err = tracker.End(err) }()

	order, err := j.Orders.Get(ctx, payload.OrderID)
	if err != nil {
		return skipMissing(err)
	}
	logger := j.logger(TaskOrderPlaced).With(slog.String("request", order.RequestNumber))
	if j.AdminEmail == "" {
		logger.Info("order notification skipped, no office address")
		return nil
	}
	client := j.client(ctx, logger, order.ClientID)

	var text strings.Builder
	fmt.Fprintf(&text, "Commande confirmée par %s.\nDemande : %s (%s)\n", clientName(client), order.RequestNumber, order.RequestKind.Label())
	if order.QuotationNumber != "" {
		fmt.Fprintf(&text, "Devis : %s\n", order.QuotationNumber)
	}
	if order.Note != "" {
		fmt.Fprintf(&text, "Note : %s\n", order.Note)
	}
	msg := mail.Message{
		To:      []string{j.AdminEmail},
		ReplyTo: clientEmail(client),
		Subject: "Commande confirmée - demande " + order.RequestNumber,
		Text:    text.String(),
	}
	if email := clientEmail(client); email != "" {
		msg.Cc = []string{email}
	}
	if a, ok := j.quotationAttachment(ctx, logger, order.QuotationNumber); ok {
		msg.Attachments = append(msg.Attachments, a)
	}
	if err := j.Mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("email order: %w", err)
	}
	return nil
}

func (j *DocumentJobs) quotationAttachment(ctx context.Context, logger *slog.Logger, number string) (mail.Attachment, bool) {
	if number == "" {
		return mail.Attachment{}, false
	}
	q, err := j.Quotations.Get(ctx, number)
	if err != nil {
		logger.Warn("quotation for order not found", slog.String("quotation", number), slog.Any("error", err))
		return mail.Attachment{}, false
	}
	if q.Document == nil {
		return mail.Attachment{}, false
	}
	data, err := j.Files.ReadAll(q.Document.Locator)
	if err != nil {
		logger.Warn("read quotation pdf", slog.String("quotation", number), slog.Any("error", err))
		return mail.Attachment{}, false
	}
	return mail.Attachment{Filename: "devis-" + q.Number + ".pdf", ContentType: pdfContentType, Data: data}, true
}

func (j *DocumentJobs) renderAndStore(ctx context.Context, dir string, doc report.Document) ([]byte, storage.Document, error) {
	pdf, err := j.Renderer.Render(ctx, doc)
	if err != nil {
		return nil, storage.Document{}, fmt.Errorf("render %s: %w", doc.Filename(), err)
	}
	locator, err := j.Files.Save(dir+"/"+doc.Filename(), pdf)
	if err != nil {
		return nil, storage.Document{}, fmt.Errorf("store %s: %w", doc.Filename(), err)
	}
	return pdf, storage.Document{Locator: locator, ContentType: pdfContentType, Size: int64(len(pdf))}, nil
}

func (j *DocumentJobs) readAttachments(logger *slog.Logger, attachments []storage.Attachment) []mail.Attachment {
	out := make([]mail.Attachment, 0, len(attachments))
	for _, a := range attachments {
		if a.Size == 0 {
			continue
		}
		data, err := j.Files.ReadAll(a.Locator)
		if err != nil {
			logger.Warn("read attachment", slog.String("locator", a.Locator), slog.Any("error", err))
			continue
		}
		out = append(out, mail.Attachment{Filename: a.Filename, ContentType: a.MediaType, Data: data})
	}
	return out
}

// client returns nil when the owner cannot be resolved; documents then show a placeholder.
func (j *DocumentJobs) client(ctx context.Context, logger *slog.Logger, id uuid.UUID) *clients.Client {
	if j.Clients == nil || id == uuid.Nil {
		return nil
	}
	c, err := j.Clients.Lookup(ctx, id)
	if err != nil {
		logger.Warn("client lookup", slog.String("client_id", id.String()), slog.Any("error", err))
		return nil
	}
	return c
}

// link renders a "Consulter" line pointing at path, or nothing without a public URL.
func (j *DocumentJobs) link(path string) string {
	if j.PublicURL == "" {
		return ""
	}
	return "Consulter : " + strings.TrimRight(j.PublicURL, "/") + path + "\n"
}

func (j *DocumentJobs) logger(job string) *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (j *DocumentJobs) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// skipMissing stops retries for records that no longer exist.
func skipMissing(err error) error {
	if errors.Is(err, httpx.ErrNotFound) {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return err
}

func nonEmpty(attachments []storage.Attachment) int {
	n := 0
	for _, a := range attachments {
		if a.Size > 0 {
			n++
		}
	}
	return n
}

func clientName(c *clients.Client) string {
	if c == nil {
		return "un client inconnu"
	}
	return c.DisplayName()
}

func clientEmail(c *clients.Client) string {
	if c == nil {
		return ""
	}
	return c.Email
}
