// Package emergency coordinates one distress alert: it gathers the user's
// contacts and medical profile, turns an optional voice clip into English
// text, finds nearby hospitals, fans the alert out to every contact on every
// configured channel and writes the AlertRecord.
package emergency

import (
	"context"

	"LifeLine/internal/models"
	"LifeLine/pkg/geo"
	"LifeLine/pkg/notification"
	"LifeLine/pkg/transcribe"
)

// State is a step of the alert lifecycle.
type State string

const (
	StateReceived           State = "Received"
	StateContactsValidated  State = "ContactsValidated"
	StateTranscribing       State = "Transcribing"
	StateTranslating        State = "Translating"
	StateLocationResolved   State = "LocationResolved"
	StateDispatching        State = "Dispatching"
	StateRecorded           State = "Recorded"
	StateRejectedNoContacts State = "RejectedNoContacts"
	StateRejectedNoPhones   State = "RejectedNoPhones"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateRecorded || s == StateRejectedNoContacts || s == StateRejectedNoPhones
}

const (
	DefaultMessage  = "Emergency! Please help."
	DefaultUserName = "Unknown User"
	DefaultLanguage = "en"
)

type ContactSource interface {
	ListContacts(ctx context.Context, userID string) ([]models.Contact, error)
}

// MedicalSource returns nil, nil when the user has no profile.
type MedicalSource interface {
	MedicalSnapshot(ctx context.Context, userID string) (*models.MedicalSnapshot, error)
}

type HospitalSource interface {
	ActiveHospitals(ctx context.Context) ([]models.Hospital, error)
}

type AlertSink interface {
	SaveAlert(ctx context.Context, rec *models.AlertRecord) error
}

// VoiceStore keeps the raw clip and returns a reference to it.
type VoiceStore interface {
	Save(ctx context.Context, userID string, data []byte, filename, contentType string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, req transcribe.Request) transcribe.TranscriptResult
}

type Translator interface {
	ToEnglish(ctx context.Context, text, sourceLang string) string
}

type Dispatcher interface {
	Dispatch(ctx context.Context, p notification.Provider, phones []string, body string) notification.Summary
}

// Request is one incoming alert.
type Request struct {
	UserID   string
	UserName string
	Email    string
	Message  string
	Location string
	Language string
	// Transcribed marks Message as a transcript the client already made.
	Transcribed bool
	Voice       *transcribe.Audio
}

type NearbyHospital = geo.Ranked[models.Hospital]

// Result is what the caller gets back. Record is always set once dispatch
// has run; PersistErr tells whether it reached the sink.
type Result struct {
	State      State
	Trail      []State
	Record     *models.AlertRecord
	Contacts   []models.Contact
	Hospitals  []NearbyHospital
	Patient    models.MedicalSnapshot
	Transcript *transcribe.TranscriptResult
	Summaries  []notification.Summary
	PersistErr error
}

func (r *Result) enter(s State) {
	r.State = s
	r.Trail = append(r.Trail, s)
}
