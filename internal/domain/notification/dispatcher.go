package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"github.com/carelink/hms/internal/domain/identity"
	"github.com/carelink/hms/internal/domain/reports"
	"github.com/carelink/hms/internal/domain/scheduling"
	"github.com/carelink/hms/internal/platform/db"
	"github.com/carelink/hms/internal/platform/delivery"
	"github.com/carelink/hms/internal/platform/websocket"
)

// Publisher pushes a live event to connected clients.
type Publisher interface {
	Publish(ctx context.Context, event websocket.Event) error
}

type Options struct {
	// WriteTimeout bounds each attempt of a single record write.
	WriteTimeout time.Duration
	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries    int
	RetryInterval time.Duration
	Concurrency   int
	// EventTimeout bounds all the work of one event, retries included.
	EventTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		WriteTimeout:  5 * time.Second,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
		Concurrency:   8,
		EventTimeout:  15 * time.Second,
	}
}

type Option func(*Dispatcher)

func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

func WithEmail(s delivery.EmailSender) Option {
	return func(d *Dispatcher) { d.email = s }
}

func WithSMS(s delivery.SMSSender) Option {
	return func(d *Dispatcher) { d.sms = s }
}

func WithTemplates(t *delivery.TemplateEngine) Option {
	return func(d *Dispatcher) { d.templates = t }
}

// Delivery is the result of one record write.
type Delivery struct {
	Notification Notification
	Err          error
	Attempts     int
}

// Outcome holds one Delivery per record of an event, in record order.
type Outcome struct {
	Deliveries []Delivery
}

func (o Outcome) Succeeded() int {
	n := 0
	for _, d := range o.Deliveries {
		if d.Err == nil {
			n++
		}
	}
	return n
}

func (o Outcome) Failed() int {
	return len(o.Deliveries) - o.Succeeded()
}

// Dispatcher turns domain events into inbox records. Every record is an
// independent write; a failed write is logged and never affects its
// siblings or the action that raised the event.
type Dispatcher struct {
	repo      Repository
	users     Recipients
	opts      Options
	publisher Publisher
	email     delivery.EmailSender
	sms       delivery.SMSSender
	templates *delivery.TemplateEngine
	logger    zerolog.Logger
	inflight  conc.WaitGroup
}

func NewDispatcher(repo Repository, users Recipients, opts Options, logger zerolog.Logger, extra ...Option) *Dispatcher {
	def := DefaultOptions()
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = def.RetryInterval
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = def.Concurrency
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = def.EventTimeout
	}
	d := &Dispatcher{
		repo:      repo,
		users:     users,
		opts:      opts,
		templates: delivery.NewTemplateEngine("CareLink Hospital"),
		logger:    logger.With().Str("component", "notification-dispatcher").Logger(),
	}
	for _, o := range extra {
		o(d)
	}
	return d
}

// Notify writes the records of ev and waits for every task to finish.
// Cancellation of ctx does not abort writes already started; the whole event
// is bounded by Options.EventTimeout instead.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) Outcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(db.WithoutTx(ctx)), d.opts.EventTimeout)
	defer cancel()

	recs, err := records(ctx, d.users, ev)
	if err != nil {
		d.logger.Error().Err(err).Str("event", ev.name()).Msg("resolve notification recipients")
		return Outcome{}
	}

	out := make([]Delivery, len(recs))
	p := pool.New().WithMaxGoroutines(d.opts.Concurrency)
	for i := range recs {
		i := i
		p.Go(func() {
			out[i] = d.deliver(ctx, ev, recs[i])
		})
	}
	p.Wait()
	return Outcome{Deliveries: out}
}

// Dispatch runs Notify in the background and returns immediately. Drain
// waits for every dispatched event.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	ctx = context.WithoutCancel(db.WithoutTx(ctx))
	d.inflight.Go(func() {
		d.Notify(ctx, ev)
	})
}

// Drain blocks until all dispatched events finish or ctx is done.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event, n Notification) Delivery {
	// Retries reuse one ID so a write that committed before failing is not
	// stored twice.
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	attempts := 0
	write := func() error {
		attempts++
		wctx, cancel := context.WithTimeout(ctx, d.opts.WriteTimeout)
		defer cancel()
		rec := n
		if err := d.repo.Create(wctx, &rec); err != nil {
			if errors.Is(err, ErrInvalid) {
				return backoff.Permanent(err)
			}
			return err
		}
		n = rec
		return nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.opts.RetryInterval
	exp.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(d.opts.MaxRetries)), ctx)

	if err := backoff.Retry(write, b); err != nil {
		d.logger.Error().Err(err).
			Str("event", ev.name()).
			Str("user_id", n.UserID.String()).
			Str("notification_type", string(n.Type)).
			Int("attempts", attempts).
			Msg("notification write failed")
		return Delivery{Notification: n, Err: err, Attempts: attempts}
	}

	d.publish(ctx, n)
	d.mirror(ctx, n)
	return Delivery{Notification: n, Attempts: attempts}
}

func (d *Dispatcher) publish(ctx context.Context, n Notification) {
	if d.publisher == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		d.logger.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("encode live notification")
		return
	}
	err = d.publisher.Publish(ctx, websocket.Event{
		Type:      "notification",
		Topic:     websocket.UserTopic(n.UserID),
		Timestamp: n.CreatedAt,
		Data:      data,
	})
	if err != nil {
		d.logger.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("push live notification")
	}
}

// mirror sends e-mail copies of appointment and medical records and SMS
// copies of appointment records when the channels are configured.
func (d *Dispatcher) mirror(ctx context.Context, n Notification) {
	wantEmail := d.email != nil && (n.Type == TypeAppointment || n.Type == TypeMedical)
	wantSMS := d.sms != nil && n.Type == TypeAppointment
	if !wantEmail && !wantSMS {
		return
	}

	log := d.logger.With().
		Str("user_id", n.UserID.String()).
		Str("notification_type", string(n.Type)).
		Logger()

	mctx, cancel := context.WithTimeout(ctx, d.opts.WriteTimeout)
	defer cancel()
	u, err := d.users.GetByID(mctx, n.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("resolve mirror recipient")
		return
	}
	data := map[string]string{
		"title":   n.Title,
		"name":    u.Name,
		"message": n.Message,
		"link":    "",
	}
	if n.Link != nil {
		data["link"] = *n.Link
	}

	if wantEmail && u.Email != "" {
		subject, body, err := d.templates.Render(delivery.TemplateNotificationEmail, data)
		if err == nil {
			err = d.email.SendEmail(mctx, u.Email, subject, body)
		}
		if err != nil {
			log.Warn().Err(err).Msg("e-mail mirror failed")
		}
	}
	if wantSMS && u.Phone != nil && *u.Phone != "" {
		_, body, err := d.templates.Render(delivery.TemplateNotificationSMS, data)
		if err == nil {
			err = d.sms.SendSMS(mctx, *u.Phone, body)
		}
		if err != nil {
			log.Warn().Err(err).Msg("sms mirror failed")
		}
	}
}

// The methods below adapt the dispatcher to the Notifier interfaces of the
// identity, scheduling and reports services. They return before any record
// is written.

func (d *Dispatcher) UserRegistered(ctx context.Context, u identity.User, adminIDs []uuid.UUID) {
	d.Dispatch(ctx, NewUserRegistered{User: u, AdminIDs: adminIDs})
}

func (d *Dispatcher) AppointmentBooked(ctx context.Context, a scheduling.Appointment) {
	d.Dispatch(ctx, NewAppointment{Appointment: a})
}

func (d *Dispatcher) AppointmentStatusChanged(ctx context.Context, a scheduling.Appointment, previous scheduling.Status) {
	d.Dispatch(ctx, AppointmentStatusChanged{Appointment: a, PreviousStatus: previous})
}

func (d *Dispatcher) ReportCreated(ctx context.Context, r reports.MedicalReport) {
	d.Dispatch(ctx, NewMedicalReport{Report: r})
}

var (
	_ identity.Notifier   = (*Dispatcher)(nil)
	_ scheduling.Notifier = (*Dispatcher)(nil)
	_ reports.Notifier    = (*Dispatcher)(nil)
)
