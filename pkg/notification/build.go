package notification

import (
	"LifeLine/pkg/config"
	"LifeLine/pkg/logger"

	"go.uber.org/zap"
)

// BuildProviders constructs the providers named in cfg.Channels, in order.
// Providers without credentials are still returned so that alerts record
// why the channel did not send.
func BuildProviders(cfg config.NotifyConfig, countryCode string) []Provider {
	twilio := TwilioConfig{
		AccountSID: cfg.TwilioSID,
		AuthToken:  cfg.TwilioToken,
		BaseURL:    cfg.TwilioBaseURL,
	}

	var out []Provider
	for _, ch := range cfg.Channels {
		switch ch {
		case "msg91", "sms":
			out = append(out, NewMSG91(MSG91Config{
				AuthKey:  cfg.MSG91AuthKey,
				SenderID: cfg.MSG91SenderID,
				Route:    cfg.MSG91Route,
				Country:  countryCode,
				BaseURL:  cfg.MSG91BaseURL,
			}))
		case "twilio_sms", "twilio":
			c := twilio
			c.From = cfg.TwilioFrom
			out = append(out, NewTwilioSMS(c))
		case "whatsapp":
			c := twilio
			c.From = cfg.WhatsAppFrom
			out = append(out, NewTwilioWhatsApp(c))
		default:
			logger.Warn("unknown notification channel ignored", zap.String("channel", ch))
		}
	}
	for _, p := range out {
		if !p.Ready() {
			logger.Warn("notification provider not initialized", zap.String("provider", p.Name()))
		}
	}
	return out
}
