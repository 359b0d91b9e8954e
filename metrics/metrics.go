package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SubscriptionsCreated zählt angelegte Abonnements.
	SubscriptionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "paper_birthday_subscriptions_created_total",
		Help: "Total number of subscriptions created.",
	})

	// SubscriptionTransitions zählt Verify- und Unsubscribe-Übergänge.
	SubscriptionTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paper_birthday_subscription_transitions_total",
		Help: "Total number of subscription state transitions.",
	}, []string{"state"})

	// EmailsSent zählt Versandversuche nach Art und Ergebnis.
	EmailsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paper_birthday_emails_total",
		Help: "Total number of emails handed to the provider.",
	}, []string{"kind", "result"})

	// SnapshotFiles zählt exportierte Tagesdateien.
	SnapshotFiles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "paper_birthday_snapshot_files_total",
		Help: "Total number of day files written by the snapshot export.",
	})

	// CacheLookups zählt Treffer und Fehlgriffe des Tages-Caches.
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paper_birthday_cache_lookups_total",
		Help: "Day cache lookups by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(SubscriptionsCreated, SubscriptionTransitions, EmailsSent, SnapshotFiles, CacheLookups)
}
