package notification

import (
	"context"
	"strconv"

	"LifeLine/pkg/phone"

	"github.com/go-resty/resty/v2"
)

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
}

// Twilio sends through the Messages resource. The same type serves SMS and
// WhatsApp; WhatsApp addresses carry a "whatsapp:" scheme on both ends.
type Twilio struct {
	cfg    TwilioConfig
	name   string
	scheme string
	client *resty.Client
}

func NewTwilioSMS(cfg TwilioConfig) *Twilio {
	return newTwilio(cfg, "twilio_sms", "")
}

func NewTwilioWhatsApp(cfg TwilioConfig) *Twilio {
	return newTwilio(cfg, "whatsapp", "whatsapp")
}

func newTwilio(cfg TwilioConfig, name, scheme string) *Twilio {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken)
	return &Twilio{cfg: cfg, name: name, scheme: scheme, client: c}
}

func (t *Twilio) Name() string { return t.name }

func (t *Twilio) Ready() bool {
	return t.cfg.AccountSID != "" && t.cfg.AuthToken != "" && t.cfg.From != ""
}

type twilioMessage struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (t *Twilio) address(number string) string {
	if t.scheme == "" {
		return number
	}
	return phone.ChatAddress(t.scheme, number)
}

func (t *Twilio) Send(ctx context.Context, to, body string) (string, error) {
	var msg twilioMessage
	var apiErr twilioError
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"From": t.address(t.cfg.From),
			"To":   t.address(to),
			"Body": body,
		}).
		SetResult(&msg).
		SetError(&apiErr).
		Post("/2010-04-01/Accounts/" + t.cfg.AccountSID + "/Messages.json")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		code := strconv.Itoa(resp.StatusCode())
		if apiErr.Code != 0 {
			code = strconv.Itoa(apiErr.Code)
		}
		return "", &SendError{Code: code, Message: apiErr.Message}
	}
	if msg.ErrorCode != nil || msg.Status == "failed" || msg.Status == "undelivered" {
		code := "TWILIO_" + msg.Status
		if msg.ErrorCode != nil {
			code = strconv.Itoa(*msg.ErrorCode)
		}
		return "", &SendError{Code: code, Message: msg.ErrorMessage}
	}
	return msg.SID, nil
}
