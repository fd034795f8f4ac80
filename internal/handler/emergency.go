package handlers

import (
	"errors"
	"io"
	"net/http"

	"LifeLine/internal/emergency"
	"LifeLine/internal/models"
	"LifeLine/pkg/geo"
	"LifeLine/pkg/i18n"
	"LifeLine/pkg/middleware"
	"LifeLine/pkg/response"
	"LifeLine/pkg/transcribe"

	"github.com/gin-gonic/gin"
)

const alertReceived = "Emergency alert received with transcription!"

// multipart overhead allowed on top of the voice clip itself
const formSlack = 1 << 20

type emergencyRequest struct {
	Message     string `json:"message" form:"message"`
	Location    string `json:"location" form:"location"`
	UserName    string `json:"userName" form:"userName"`
	Language    string `json:"language" form:"language"`
	Transcribed bool   `json:"transcribed" form:"transcribed"`
}

type voiceView struct {
	Reference string `json:"reference"`
	URL       string `json:"url,omitempty"`
	Size      int    `json:"size"`
	MIME      string `json:"mimetype,omitempty"`
}

type contactView struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type hospitalView struct {
	ID                  uint     `json:"id"`
	Name                string   `json:"name"`
	Phone               string   `json:"phone"`
	Distance            float64  `json:"distance"`
	Specialties         []string `json:"specialties"`
	BedsAvailable       int      `json:"bedsAvailable"`
	AmbulancesAvailable int      `json:"ambulancesAvailable"`
}

type patientView struct {
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	MedicalDetails models.MedicalSnapshot `json:"medicalDetails"`
}

type emergencyView struct {
	Message              string         `json:"message"`
	AlertID              uint           `json:"alertId,omitempty"`
	Reference            string         `json:"reference,omitempty"`
	Status               string         `json:"status"`
	Recorded             bool           `json:"recorded"`
	SentCount            int            `json:"sentCount"`
	FailedCount          int            `json:"failedCount"`
	Voice                *voiceView     `json:"voice"`
	Transcript           string         `json:"transcript"`
	TranslatedTranscript string         `json:"translatedTranscript"`
	DetectedLanguage     string         `json:"detectedLanguage"`
	Confidence           float64        `json:"transcriptConfidence"`
	Location             string         `json:"location"`
	Contacts             []contactView  `json:"contacts"`
	NearbyHospitals      []hospitalView `json:"nearbyHospitals"`
	PatientInfo          patientView    `json:"patientInfo"`
}

// handleRaiseEmergency 接收紧急求助：JSON 或 multipart（voice 字段为录音）
func (h *Handlers) handleRaiseEmergency(c *gin.Context) {
	maxVoice := h.Config.MaxVoiceBytes
	if maxVoice > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxVoice+formSlack)
	}

	var body emergencyRequest
	if err := c.ShouldBind(&body); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, "voice recording too large")
			return
		}
		response.Fail(c, http.StatusBadRequest, "invalid request")
		return
	}

	voice, status, msg := readVoice(c, maxVoice)
	if status != 0 {
		response.Fail(c, status, msg)
		return
	}

	userName := body.UserName
	if userName == "" {
		userName = models.CurrentUserName(c)
	}
	req := emergency.Request{
		UserID:      models.CurrentUserID(c),
		UserName:    userName,
		Email:       models.CurrentUserEmail(c),
		Message:     body.Message,
		Location:    body.Location,
		Language:    body.Language,
		Transcribed: body.Transcribed,
		Voice:       voice,
	}

	res, err := h.Orchestrator.Raise(c.Request.Context(), req)
	if err != nil {
		if res != nil {
			switch res.State {
			case emergency.StateRejectedNoContacts:
				response.Fail(c, http.StatusBadRequest, h.localize(c, i18n.MsgNoContacts, err))
				return
			case emergency.StateRejectedNoPhones:
				response.Fail(c, http.StatusBadRequest, h.localize(c, i18n.MsgNoPhones, err))
				return
			}
		}
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"ok": true, "emergency": h.emergencyView(req, res)})
}

// readVoice returns the uploaded clip, or a non-zero status when the
// upload is unusable. A missing voice field is not an error.
func readVoice(c *gin.Context, maxBytes int64) (*transcribe.Audio, int, string) {
	fh, err := c.FormFile("voice")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, "voice recording too large"
		}
		return nil, 0, ""
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, http.StatusRequestEntityTooLarge, "voice recording too large"
	}
	f, err := fh.Open()
	if err != nil {
		return nil, http.StatusBadRequest, "unreadable voice recording"
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, http.StatusBadRequest, "unreadable voice recording"
	}
	if len(data) == 0 {
		return nil, 0, ""
	}
	return &transcribe.Audio{
		Data:     data,
		Filename: fh.Filename,
		MIME:     fh.Header.Get("Content-Type"),
	}, 0, ""
}

func (h *Handlers) localize(c *gin.Context, key string, fallback error) string {
	if h.I18n == nil {
		return fallback.Error()
	}
	return h.I18n.T(middleware.CurrentLang(c), key, nil)
}

func (h *Handlers) emergencyView(req emergency.Request, res *emergency.Result) emergencyView {
	rec := res.Record
	view := emergencyView{
		Message:         alertReceived,
		AlertID:         rec.ID,
		Reference:       rec.Reference,
		Status:          rec.Status,
		Recorded:        res.PersistErr == nil,
		SentCount:       rec.SentCount,
		FailedCount:     rec.FailedCount,
		Location:        rec.RawLocation,
		Contacts:        make([]contactView, len(res.Contacts)),
		NearbyHospitals: make([]hospitalView, len(res.Hospitals)),
		PatientInfo: patientView{
			Name:           rec.UserName,
			Email:          req.Email,
			MedicalDetails: res.Patient,
		},
	}
	if tr := res.Transcript; tr != nil {
		view.Transcript = tr.OriginalText
		view.TranslatedTranscript = tr.EnglishText
		view.DetectedLanguage = tr.DetectedLanguage
		view.Confidence = tr.Confidence
	}
	if req.Voice != nil {
		v := &voiceView{Reference: rec.VoiceReference, Size: len(req.Voice.Data), MIME: req.Voice.MIME}
		if h.Voice != nil && rec.VoiceReference != "" {
			v.URL = h.Voice.URL(rec.VoiceReference)
		}
		view.Voice = v
	}
	for i, ct := range res.Contacts {
		view.Contacts[i] = contactView{Name: ct.Name, Phone: ct.Phone}
	}
	for i, n := range res.Hospitals {
		view.NearbyHospitals[i] = hospitalView{
			ID:                  n.Site.ID,
			Name:                n.Site.Name,
			Phone:               n.Site.Phone,
			Distance:            geo.Round2(n.DistanceKm),
			Specialties:         n.Site.Specialties,
			BedsAvailable:       n.Site.BedsAvailable,
			AmbulancesAvailable: n.Site.AmbulancesAvailable,
		}
	}
	return view
}
