package models

import (
	"errors"
	"time"
)

var (
	// ErrNotFound wird von den Stores geliefert, wenn kein Datensatz existiert.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate meldet eine Verletzung eines Unique-Constraints.
	ErrDuplicate = errors.New("duplicate record")
)

// SubscriptionState ist der Zustand im Double-Opt-In-Lebenszyklus.
type SubscriptionState string

const (
	StateCreated      SubscriptionState = "created"
	StateVerified     SubscriptionState = "verified"
	StateUnsubscribed SubscriptionState = "unsubscribed"
)

// Subscription ist ein jährlicher Geburtstags-Reminder für ein Paper.
// Pro (email, paper_id) darf es nur eine nicht abgemeldete Zeile geben; das erzwingt der
// partielle Unique-Index, nicht erst die Anwendung.
type Subscription struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email               string `json:"email" gorm:"not null;size:320;index;uniqueIndex:idx_subscriptions_active_pair,where:unsubscribed = false"`
	PaperID             string `json:"paper_id" gorm:"not null;uniqueIndex:idx_subscriptions_active_pair,where:unsubscribed = false"`
	PaperTitle          string `json:"paper_title" gorm:"not null"`
	PublicationMonthDay string `json:"publication_month_day" gorm:"not null;size:5;index"`

	VerificationToken string `json:"-" gorm:"not null;uniqueIndex"`
	UnsubscribeToken  string `json:"-" gorm:"not null;uniqueIndex"`

	Verified       bool       `json:"verified" gorm:"not null;default:false"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	Unsubscribed   bool       `json:"unsubscribed" gorm:"not null;default:false"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
	LastSentYear   *int       `json:"last_sent_year,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Subscription) TableName() string {
	return "paper_birthday_subscriptions"
}

// State leitet den Lebenszyklus-Zustand aus den Flags ab.
func (s *Subscription) State() SubscriptionState {
	switch {
	case s.Unsubscribed:
		return StateUnsubscribed
	case s.Verified:
		return StateVerified
	default:
		return StateCreated
	}
}

// DueSubscription ist ein fälliges Abonnement samt den Paper-Daten für die Nachricht.
type DueSubscription struct {
	Subscription  `gorm:"embedded"`
	PaperYear     int       `gorm:"column:paper_year"`
	CitationCount int       `gorm:"column:citation_count"`
	PaperURL      string    `gorm:"column:paper_url"`
	PaperVenue    string    `gorm:"column:paper_venue"`
	FieldsOfStudy FieldTags `gorm:"column:fields_of_study"`
}
