package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/metrics"
	"paper-birthdays/models"
	"paper-birthdays/providers"
)

// DispatchResult fasst einen Versandlauf zusammen.
type DispatchResult struct {
	MonthDay string `json:"month_day"`
	Year     int    `json:"year"`
	Total    int    `json:"total"`
	Sent     int    `json:"sent"`
	Failed   int    `json:"failed"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// Dispatcher verschickt die jährlichen Geburtstagsmails.
type Dispatcher struct {
	Config        *config.Config
	Logger        *zap.Logger
	Subscriptions SubscriptionStore
	Sender        providers.Sender
	Mailer        Mailer
	DryRun        bool
}

// NewDispatcher erstellt einen Dispatcher; EMAIL_DRY_RUN schaltet den Trockenlauf ein.
func NewDispatcher(cfg *config.Config, logger *zap.Logger, subs SubscriptionStore, sender providers.Sender) *Dispatcher {
	return &Dispatcher{
		Config:        cfg,
		Logger:        logger.With(zap.String("component", "dispatch")),
		Subscriptions: subs,
		Sender:        sender,
		Mailer:        Mailer{SiteURL: cfg.SiteURL},
		DryRun:        cfg.EmailDryRun,
	}
}

// DueSubscriptions liefert bestätigte, nicht abgemeldete Abonnements für den Tag,
// die in diesem Jahr noch keine Mail bekommen haben.
func (d *Dispatcher) DueSubscriptions(ctx context.Context, monthDay string, year int) ([]models.DueSubscription, error) {
	if _, err := ParseMonthDay(monthDay); err != nil {
		return nil, err
	}
	due, err := d.Subscriptions.Due(ctx, monthDay, year)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return due, nil
}

// Dispatch verschickt eine Geburtstagsmail und meldet true nur bei erfolgreichem Versand.
func (d *Dispatcher) Dispatch(ctx context.Context, due models.DueSubscription, year int) (bool, error) {
	msg, err := d.Mailer.BirthdayMessage(due, NormalizeField(due.FieldsOfStudy), year)
	if err != nil {
		return false, err
	}
	if err := d.Sender.Send(ctx, msg); err != nil {
		metrics.EmailsSent.WithLabelValues("birthday", "failed").Inc()
		return false, err
	}
	metrics.EmailsSent.WithLabelValues("birthday", "sent").Inc()
	return true, nil
}

// MarkSent hält das Versandjahr fest. last_sent_year läuft nur vorwärts.
func (d *Dispatcher) MarkSent(ctx context.Context, due models.DueSubscription, year int) error {
	return d.Subscriptions.MarkSent(ctx, due.ID, year)
}

// Run verarbeitet alle fälligen Abonnements des Tages. Fehlschläge einzelner Mails brechen
// den Lauf nicht ab; jede erfolgreiche Mail wird sofort markiert.
func (d *Dispatcher) Run(ctx context.Context, monthDay string, year int) (DispatchResult, error) {
	res := DispatchResult{MonthDay: monthDay, Year: year, DryRun: d.DryRun}
	due, err := d.DueSubscriptions(ctx, monthDay, year)
	if err != nil {
		return res, err
	}
	res.Total = len(due)
	d.Logger.Info("Dispatch started",
		zap.String("month_day", monthDay),
		zap.Int("year", year),
		zap.Int("due", res.Total),
		zap.Bool("dry_run", d.DryRun))

	for _, sub := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log := d.Logger.With(zap.Uint("subscription_id", sub.ID), zap.String("paper_id", sub.PaperID))
		if d.DryRun {
			log.Info("Dry run: birthday email skipped", zap.Int("age", year-sub.PaperYear))
			continue
		}
		if _, err := d.Dispatch(ctx, sub, year); err != nil {
			res.Failed++
			log.Error("Birthday email failed", zap.String("provider", d.Sender.Name()), zap.Error(err))
			continue
		}
		if err := d.MarkSent(ctx, sub, year); err != nil {
			// Die Mail ist raus; ohne Markierung würde der nächste Lauf sie erneut schicken.
			res.Failed++
			log.Error("Failed to record sent year", zap.Error(err))
			continue
		}
		res.Sent++
	}

	d.Logger.Info("Dispatch finished",
		zap.Int("total", res.Total),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed))
	return res, nil
}
