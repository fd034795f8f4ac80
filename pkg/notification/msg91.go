package notification

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

type MSG91Config struct {
	AuthKey  string
	SenderID string
	Route    string
	Country  string
	BaseURL  string
}

// MSG91 sends SMS through the legacy sendhttp.php endpoint, which answers
// in plain text: "success:<id>" or an error string.
type MSG91 struct {
	cfg    MSG91Config
	client *resty.Client
}

func NewMSG91(cfg MSG91Config) *MSG91 {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.msg91.com"
	}
	if cfg.Country == "" {
		cfg.Country = "91"
	}
	return &MSG91{cfg: cfg, client: resty.New().SetBaseURL(cfg.BaseURL)}
}

func (m *MSG91) Name() string { return "msg91" }

func (m *MSG91) Ready() bool {
	return m.cfg.AuthKey != "" && m.cfg.SenderID != "" && m.cfg.Route != ""
}

func (m *MSG91) Send(ctx context.Context, phone, body string) (string, error) {
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"authkey": m.cfg.AuthKey,
			"mobiles": m.mobile(phone),
			"message": body,
			"sender":  m.cfg.SenderID,
			"route":   m.cfg.Route,
			"country": m.cfg.Country,
		}).
		Get("/api/sendhttp.php")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", &SendError{Code: strconv.Itoa(resp.StatusCode()), Message: strings.TrimSpace(resp.String())}
	}

	text := strings.TrimSpace(resp.String())
	if !strings.HasPrefix(text, "success") {
		return "", &SendError{Code: "MSG91_ERROR", Message: text}
	}
	_, id, _ := strings.Cut(text, ":")
	return id, nil
}

// mobile drops '+' and leading zeros; bare 10 digit numbers get the
// country prefix.
func (m *MSG91) mobile(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if len(digits) == 10 {
		return m.cfg.Country + digits
	}
	return digits
}
