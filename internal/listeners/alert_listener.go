package listeners

import (
	"context"
	"time"

	"LifeLine/internal/emergency"
	"LifeLine/internal/models"
	"LifeLine/pkg/broker"
	"LifeLine/pkg/geo"
	"LifeLine/pkg/logger"
	"LifeLine/pkg/sse"
	"LifeLine/pkg/util"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// AlertEvent is what hospital dashboards and MQTT subscribers receive.
type AlertEvent struct {
	AlertID      uint                    `json:"alertId"`
	Reference    string                  `json:"reference"`
	UserName     string                  `json:"userName"`
	Message      string                  `json:"message"`
	Transcript   string                  `json:"transcript,omitempty"`
	Language     string                  `json:"detectedLanguage,omitempty"`
	Location     string                  `json:"location"`
	Latitude     *float64                `json:"latitude,omitempty"`
	Longitude    *float64                `json:"longitude,omitempty"`
	DistanceKm   float64                 `json:"distance,omitempty"`
	Patient      *models.MedicalSnapshot `json:"patientMedicalInfo,omitempty"`
	HospitalIDs  []uint                  `json:"hospitalIds"`
	ContactCount int                     `json:"contactsNotified"`
	CreatedAt    time.Time               `json:"createdAt"`
}

// NewAlertEvent builds the event for one recorded alert.
func NewAlertEvent(rec *models.AlertRecord) AlertEvent {
	return AlertEvent{
		AlertID:      rec.ID,
		Reference:    rec.Reference,
		UserName:     rec.UserName,
		Message:      rec.MessageText,
		Transcript:   rec.TranslatedTranscript,
		Language:     rec.DetectedLanguage,
		Location:     rec.RawLocation,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		Patient:      rec.MedicalSnapshot,
		HospitalIDs:  rec.NearbyHospitalIDs,
		ContactCount: rec.ContactsNotified,
		CreatedAt:    rec.CreatedAt,
	}
}

// HospitalGroup names the SSE group of one hospital's dashboard.
func HospitalGroup(id uint) string {
	return "hospital:" + cast.ToString(id)
}

// InitAlertListeners forwards every recorded alert to the dashboards of
// the hospitals it listed and, when pub is set, to MQTT. Either sink may
// be nil.
func InitAlertListeners(sig *util.Signals, hub *sse.Hub, pub broker.Publisher, topic string) {
	log := logger.Named("listeners")
	sig.Connect(models.SigAlertRecorded, func(sender any, params ...any) {
		rec, ok := sender.(*models.AlertRecord)
		if !ok {
			return
		}
		var nearby []emergency.NearbyHospital
		if len(params) > 0 {
			nearby, _ = params[0].([]emergency.NearbyHospital)
		}

		base := NewAlertEvent(rec)
		if hub != nil {
			for _, n := range nearby {
				ev := base
				ev.DistanceKm = geo.Round2(n.DistanceKm)
				if _, err := hub.Publish(HospitalGroup(n.Site.ID), "alert", ev); err != nil {
					log.Warn("sse publish failed", zap.Uint("hospital", n.Site.ID), zap.Error(err))
				}
			}
		}
		if pub != nil {
			go publishMQTT(log, pub, topic, base, nearby)
		}
	})
}

func publishMQTT(log *zap.Logger, pub broker.Publisher, topic string, ev AlertEvent, nearby []emergency.NearbyHospital) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := broker.PublishJSON(ctx, pub, topic, ev); err != nil {
		log.Warn("mqtt publish failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	for _, n := range nearby {
		hev := ev
		hev.DistanceKm = geo.Round2(n.DistanceKm)
		t := broker.HospitalTopic(topic, n.Site.ID)
		if err := broker.PublishJSON(ctx, pub, t, hev); err != nil {
			log.Warn("mqtt publish failed", zap.String("topic", t), zap.Error(err))
		}
	}
}
