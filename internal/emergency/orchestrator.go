package emergency

import (
	"context"
	"strings"
	"sync"
	"time"

	"LifeLine/internal/models"
	"LifeLine/pkg/errors"
	"LifeLine/pkg/geo"
	"LifeLine/pkg/logger"
	"LifeLine/pkg/metrics"
	"LifeLine/pkg/notification"
	"LifeLine/pkg/phone"
	"LifeLine/pkg/transcribe"
	"LifeLine/pkg/translate"
	"LifeLine/pkg/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Deps wires the orchestrator. Voice, Hospitals, Signals and Metrics may be
// nil.
type Deps struct {
	Contacts    ContactSource
	Medical     MedicalSource
	Hospitals   HospitalSource
	Alerts      AlertSink
	Voice       VoiceStore
	Transcriber Transcriber
	Translator  Translator
	Dispatcher  Dispatcher
	Providers   []notification.Provider
	Phones      phone.Normalizer
	RadiusKm    float64
	Signals     *util.Signals
	Metrics     *metrics.Metrics
}

type Orchestrator struct {
	Deps
	log *zap.Logger
}

func New(d Deps) *Orchestrator {
	if d.RadiusKm <= 0 {
		d.RadiusKm = geo.DefaultRadiusKm
	}
	if d.Phones.CountryCode() == "" {
		d.Phones = phone.NewNormalizer("")
	}
	return &Orchestrator{Deps: d, log: logger.Named("emergency")}
}

// Raise runs one alert to completion. The only errors returned are
// validation rejections, raised before any side effect, and a failure to
// read the user's contacts. Everything else degrades into the Result.
func (o *Orchestrator) Raise(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res := &Result{}
	o.transition(res, req.UserID, StateReceived)
	defer func() { o.Metrics.RecordAlert(string(res.State), time.Since(start)) }()

	req = withDefaults(req)

	contacts, medical, err := o.loadProfile(ctx, req.UserID)
	if err != nil {
		return res, err
	}
	if len(contacts) == 0 {
		o.transition(res, req.UserID, StateRejectedNoContacts)
		return res, errors.Validation("No emergency contacts found. Please add emergency contacts first.")
	}
	phones := o.contactPhones(contacts)
	if len(phones) == 0 {
		o.transition(res, req.UserID, StateRejectedNoPhones)
		return res, errors.Validation("No valid phone numbers found in emergency contacts.")
	}
	res.Contacts = contacts
	o.transition(res, req.UserID, StateContactsValidated)

	rec := &models.AlertRecord{
		UserID:           req.UserID,
		UserName:         req.UserName,
		MessageText:      req.Message,
		RawLocation:      req.Location,
		ContactsNotified: len(phones),
		MedicalSnapshot:  medical,
	}
	if medical != nil {
		res.Patient = *medical
	} else {
		res.Patient = models.EmptySnapshot()
	}

	tr := o.transcript(ctx, res, req, rec)
	res.Transcript = tr
	rec.Transcript = tr.OriginalText
	rec.TranslatedTranscript = tr.EnglishText
	rec.DetectedLanguage = tr.DetectedLanguage
	rec.TranscriptConfidence = tr.Confidence

	if pt, ok := o.resolveLocation(req); ok {
		rec.Latitude, rec.Longitude = &pt.Lat, &pt.Lon
		res.Hospitals = o.nearbyHospitals(ctx, pt)
		for _, h := range res.Hospitals {
			rec.NearbyHospitalIDs = append(rec.NearbyHospitalIDs, h.Site.ID)
		}
		o.transition(res, req.UserID, StateLocationResolved)
	}

	o.transition(res, req.UserID, StateDispatching)
	body := notification.AlertBody(req.UserName, req.Location)
	res.Summaries = o.dispatchAll(ctx, phones, body)
	tally(rec, phones, res.Summaries)

	if err := o.Alerts.SaveAlert(context.WithoutCancel(ctx), rec); err != nil {
		res.PersistErr = err
		o.log.Error("alert record not persisted",
			zap.String("user", req.UserID), zap.Int("sent", rec.SentCount), zap.Error(err))
	}
	res.Record = rec
	o.transition(res, req.UserID, StateRecorded)

	if res.PersistErr == nil && o.Signals != nil {
		o.Signals.Emit(models.SigAlertRecorded, rec, res.Hospitals)
	}
	return res, nil
}

func withDefaults(req Request) Request {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		req.Message = DefaultMessage
	}
	req.UserName = strings.TrimSpace(req.UserName)
	if req.UserName == "" {
		req.UserName = DefaultUserName
	}
	if strings.TrimSpace(req.Language) == "" {
		req.Language = DefaultLanguage
	}
	req.Location = strings.TrimSpace(req.Location)
	return req
}

// loadProfile reads contacts and medical info in parallel. A medical read
// failure is logged and treated as "no profile".
func (o *Orchestrator) loadProfile(ctx context.Context, userID string) ([]models.Contact, *models.MedicalSnapshot, error) {
	var (
		contacts []models.Contact
		medical  *models.MedicalSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contacts, err = o.Contacts.ListContacts(gctx, userID)
		return err
	})
	if o.Medical != nil {
		g.Go(func() error {
			m, err := o.Medical.MedicalSnapshot(gctx, userID)
			if err != nil {
				o.log.Warn("medical info unavailable", zap.String("user", userID), zap.Error(err))
				return nil
			}
			medical = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, errors.WrapKind(err, errors.KindPersistence, "load emergency contacts")
	}
	if len(contacts) > models.MaxAlertContacts {
		contacts = contacts[:models.MaxAlertContacts]
	}
	return contacts, medical, nil
}

// contactPhones normalizes every contact phone, dropping the unusable ones.
// Duplicates are kept so each contact gets its own outcome.
func (o *Orchestrator) contactPhones(contacts []models.Contact) []string {
	phones := make([]string, 0, len(contacts))
	for _, c := range contacts {
		p, err := o.Phones.Normalize(c.Phone)
		if err != nil {
			o.log.Debug("skipping contact phone", zap.Uint("contact", c.ID), zap.Error(err))
			continue
		}
		phones = append(phones, p)
	}
	return phones
}

func (o *Orchestrator) transcript(ctx context.Context, res *Result, req Request, rec *models.AlertRecord) *transcribe.TranscriptResult {
	supplied := ""
	if text, ok := transcribe.SuppliedTranscript(req.Message); ok {
		supplied = text
	} else if req.Transcribed && !transcribe.IsPlaceholderText(req.Message) {
		supplied = strings.TrimSpace(req.Message)
	}

	var tr transcribe.TranscriptResult
	if req.Voice != nil && !req.Voice.Empty() {
		if o.Voice != nil {
			ref, err := o.Voice.Save(ctx, req.UserID, req.Voice.Data, req.Voice.Filename, req.Voice.MIME)
			if err != nil {
				o.log.Warn("voice clip not stored", zap.String("user", req.UserID), zap.Error(err))
			}
			rec.VoiceReference = ref
		}
		o.transition(res, req.UserID, StateTranscribing)
		tr = o.Transcriber.Transcribe(ctx, transcribe.Request{Audio: *req.Voice, Language: req.Language, Supplied: supplied})
	} else {
		text := supplied
		if text == "" && !transcribe.IsPlaceholderText(req.Message) {
			text = strings.TrimSpace(req.Message)
		}
		if text == "" {
			// 没有可用文本，由识别链给出本地化的占位语
			tr = o.Transcriber.Transcribe(ctx, transcribe.Request{Language: req.Language})
		} else {
			tr = transcribe.TranscriptResult{
				OriginalText:     text,
				DetectedLanguage: transcribe.NormalizeLang(req.Language),
				Confidence:       1,
				Supplied:         true,
			}
		}
	}

	tr.EnglishText = tr.OriginalText
	if !translate.IsEnglish(tr.DetectedLanguage) && o.Translator != nil {
		o.transition(res, req.UserID, StateTranslating)
		tr.EnglishText = o.Translator.ToEnglish(ctx, tr.OriginalText, tr.DetectedLanguage)
	}
	return &tr
}

// resolveLocation treats an unparseable location as absent.
func (o *Orchestrator) resolveLocation(req Request) (geo.Point, bool) {
	if req.Location == "" {
		return geo.Point{}, false
	}
	pt, err := geo.ParseLocation(req.Location)
	if err != nil {
		o.log.Info("location not usable for hospital lookup",
			zap.String("user", req.UserID), zap.String("location", req.Location), zap.Error(err))
		return geo.Point{}, false
	}
	return pt, true
}

func (o *Orchestrator) nearbyHospitals(ctx context.Context, pt geo.Point) []NearbyHospital {
	if o.Hospitals == nil {
		return nil
	}
	hs, err := o.Hospitals.ActiveHospitals(ctx)
	if err != nil {
		o.log.Warn("hospital lookup failed", zap.Error(err))
		return nil
	}
	return geo.Nearby(pt, o.RadiusKm, hs)
}

// dispatchAll runs every provider concurrently. Summaries keep provider
// order.
func (o *Orchestrator) dispatchAll(ctx context.Context, phones []string, body string) []notification.Summary {
	out := make([]notification.Summary, len(o.Providers))
	var wg sync.WaitGroup
	for i, p := range o.Providers {
		wg.Add(1)
		go func(i int, p notification.Provider) {
			defer wg.Done()
			out[i] = o.Dispatcher.Dispatch(ctx, p, phones, body)
		}(i, p)
	}
	wg.Wait()

	for _, s := range out {
		if s.Reason != "" {
			o.Metrics.RecordProviderSkipped(s.Provider, s.FailedCount)
		}
	}
	return out
}

// tally fills the dispatch fields of rec. A phone counts as sent when any
// channel delivered to it.
func tally(rec *models.AlertRecord, phones []string, summaries []notification.Summary) {
	delivered := make(map[string]bool, len(phones))
	for _, s := range summaries {
		rec.Providers = append(rec.Providers, s.Provider)
		if s.Reason != "" {
			if rec.ProviderReasons == nil {
				rec.ProviderReasons = make(map[string]string)
			}
			rec.ProviderReasons[s.Provider] = s.Reason
		}
		for _, oc := range s.Outcomes {
			rec.ProviderOutcomes = append(rec.ProviderOutcomes, oc)
			if oc.Success {
				delivered[oc.ContactPhone] = true
			}
		}
	}
	for _, p := range phones {
		if delivered[p] {
			rec.SentCount++
		} else {
			rec.FailedCount++
		}
	}
	rec.Status = models.StatusFor(rec.SentCount, rec.FailedCount)
}

func (o *Orchestrator) transition(res *Result, userID string, s State) {
	res.enter(s)
	o.log.Info("alert state", zap.String("user", userID), zap.String("state", string(s)))
}
