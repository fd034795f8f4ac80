package config

import (
	"LifeLine/pkg/logger"
	"LifeLine/pkg/util"
	"log"
	"os"
	"time"
)

// ASRConfig holds credentials and per-backend timeouts for transcription.
type ASRConfig struct {
	OpenAIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"`
	WhisperModel    string        `env:"WHISPER_MODEL"`
	WhisperTimeout  time.Duration `env:"WHISPER_TIMEOUT"`
	DeepgramKey     string        `env:"DEEPGRAM_API_KEY"`
	DeepgramModel   string        `env:"DEEPGRAM_MODEL"`
	DeepgramTimeout time.Duration `env:"DEEPGRAM_TIMEOUT"`
	GoogleKey       string        `env:"GOOGLE_SPEECH_API_KEY"`
	GoogleTimeout   time.Duration `env:"GOOGLE_SPEECH_TIMEOUT"`
	FFmpegPath      string        `env:"FFMPEG_PATH"`
	ConvertTimeout  time.Duration `env:"ASR_CONVERT_TIMEOUT"`
	TempDir         string        `env:"AUDIO_TEMP_DIR"`
}

type TranslateConfig struct {
	Backend   string        `env:"TRANSLATE_BACKEND"` // mymemory | llm | none
	BaseURL   string        `env:"MYMEMORY_BASE_URL"`
	Email     string        `env:"MYMEMORY_EMAIL"`
	Timeout   time.Duration `env:"TRANSLATE_TIMEOUT"`
	LLMModel  string        `env:"LLM_MODEL"`
	LLMApiKey string        `env:"LLM_API_KEY"`
	LLMURL    string        `env:"LLM_BASE_URL"`
}

// NotifyConfig carries provider credentials. A provider with missing
// credentials is still constructed and reports itself as uninitialized.
type NotifyConfig struct {
	Channels      []string      `env:"NOTIFY_CHANNELS"` // msg91,twilio_sms,whatsapp
	MaxParallel   int           `env:"NOTIFY_MAX_PARALLEL"`
	SendTimeout   time.Duration `env:"NOTIFY_SEND_TIMEOUT"`
	MSG91AuthKey  string        `env:"MSG91_AUTH_KEY"`
	MSG91SenderID string        `env:"MSG91_SENDER_ID"`
	MSG91Route    string        `env:"MSG91_ROUTE"`
	MSG91BaseURL  string        `env:"MSG91_BASE_URL"`
	TwilioSID     string        `env:"TWILIO_ACCOUNT_SID"`
	TwilioToken   string        `env:"TWILIO_AUTH_TOKEN"`
	TwilioFrom    string        `env:"TWILIO_PHONE_NUMBER"`
	WhatsAppFrom  string        `env:"TWILIO_WHATSAPP_NUMBER"`
	TwilioBaseURL string        `env:"TWILIO_BASE_URL"`
}

type StorageConfig struct {
	Driver         string `env:"STORAGE_DRIVER"` // local | minio | cos
	LocalRoot      string `env:"STORAGE_LOCAL_ROOT"`
	Bucket         string `env:"STORAGE_BUCKET"`
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL"`
	PublicBaseURL  string `env:"STORAGE_PUBLIC_BASE"`
	COSBucketURL   string `env:"COS_BUCKET_URL"`
	COSSecretID    string `env:"COS_SECRET_ID"`
	COSSecretKey   string `env:"COS_SECRET_KEY"`
}

type CacheConfig struct {
	Type          string        `env:"CACHE_TYPE"` // local | gocache | redis
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB"`
	HospitalTTL   time.Duration `env:"HOSPITAL_CACHE_TTL"`
	MaxSize       int           `env:"LOCAL_CACHE_MAX_SIZE"`
}

type MQTTConfig struct {
	Broker   string `env:"MQTT_BROKER"`
	ClientID string `env:"MQTT_CLIENT_ID"`
	Username string `env:"MQTT_USERNAME"`
	Password string `env:"MQTT_PASSWORD"`
	Topic    string `env:"MQTT_ALERT_TOPIC"`
}

type Config struct {
	DBDriver           string `env:"DB_DRIVER"`
	DSN                string `env:"DSN"`
	Log                logger.LogConfig
	Addr               string  `env:"ADDR"`
	Mode               string  `env:"MODE"`
	APIPrefix          string  `env:"API_PREFIX"`
	MonitorPrefix      string  `env:"MONITOR_PREFIX"`
	AuthSecret         string  `env:"AUTH_SECRET"`
	DefaultCountryCode string  `env:"DEFAULT_COUNTRY_CODE"`
	NearbyRadiusKm     float64 `env:"NEARBY_RADIUS_KM"`
	LanguageEnabled    bool    `env:"LANGUAGE_ENABLED"`
	RateLimit          string  `env:"RATE_LIMIT"`
	EmergencyRateLimit string  `env:"EMERGENCY_RATE_LIMIT"`
	MaxVoiceBytes      int64   `env:"MAX_VOICE_BYTES"`
	ASR                ASRConfig
	Translate          TranslateConfig
	Notify             NotifyConfig
	Storage            StorageConfig
	Cache              CacheConfig
	MQTT               MQTTConfig
	BackupEnabled      bool   `env:"BACKUP_ENABLED"`
	BackupPath         string `env:"BACKUP_PATH"`
	BackupSchedule     string `env:"BACKUP_SCHEDULE"`
	BackupKeep         int    `env:"BACKUP_KEEP"`
	AudioPurgeSchedule string `env:"AUDIO_PURGE_SCHEDULE"`
}

var GlobalConfig *Config

func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	err := util.LoadEnv(env)
	if err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = FromEnv()
	return nil
}

// FromEnv builds a Config from the current process environment.
func FromEnv() *Config {
	return &Config{
		DBDriver:           util.GetEnvOr("DB_DRIVER", "sqlite"),
		DSN:                util.GetEnvOr("DSN", "lifeline.db"),
		Addr:               util.GetEnvOr("ADDR", ":8080"),
		Mode:               util.GetEnvOr("MODE", "release"),
		APIPrefix:          util.GetEnvOr("API_PREFIX", "/api"),
		MonitorPrefix:      util.GetEnvOr("MONITOR_PREFIX", "/metrics"),
		AuthSecret:         util.GetEnv("AUTH_SECRET"),
		DefaultCountryCode: util.GetEnvOr("DEFAULT_COUNTRY_CODE", "91"),
		NearbyRadiusKm:     util.GetFloatEnvOr("NEARBY_RADIUS_KM", 5),
		LanguageEnabled:    util.GetBoolEnv("LANGUAGE_ENABLED"),
		RateLimit:          util.GetEnvOr("RATE_LIMIT", "120-M"),
		EmergencyRateLimit: util.GetEnvOr("EMERGENCY_RATE_LIMIT", "10-M"),
		MaxVoiceBytes:      util.GetIntEnvOr("MAX_VOICE_BYTES", 10<<20),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		ASR: ASRConfig{
			OpenAIKey:       util.GetEnv("OPENAI_API_KEY"),
			OpenAIBaseURL:   util.GetEnv("OPENAI_BASE_URL"),
			WhisperModel:    util.GetEnvOr("WHISPER_MODEL", "whisper-1"),
			WhisperTimeout:  util.GetDurationEnvOr("WHISPER_TIMEOUT", 120*time.Second),
			DeepgramKey:     util.GetEnv("DEEPGRAM_API_KEY"),
			DeepgramModel:   util.GetEnvOr("DEEPGRAM_MODEL", "nova-2"),
			DeepgramTimeout: util.GetDurationEnvOr("DEEPGRAM_TIMEOUT", 60*time.Second),
			GoogleKey:       util.GetEnv("GOOGLE_SPEECH_API_KEY"),
			GoogleTimeout:   util.GetDurationEnvOr("GOOGLE_SPEECH_TIMEOUT", 60*time.Second),
			FFmpegPath:      util.GetEnvOr("FFMPEG_PATH", "ffmpeg"),
			ConvertTimeout:  util.GetDurationEnvOr("ASR_CONVERT_TIMEOUT", 30*time.Second),
			TempDir:         util.GetEnvOr("AUDIO_TEMP_DIR", os.TempDir()),
		},
		Translate: TranslateConfig{
			Backend:   util.GetEnvOr("TRANSLATE_BACKEND", "mymemory"),
			BaseURL:   util.GetEnvOr("MYMEMORY_BASE_URL", "https://api.mymemory.translated.net"),
			Email:     util.GetEnv("MYMEMORY_EMAIL"),
			Timeout:   util.GetDurationEnvOr("TRANSLATE_TIMEOUT", 15*time.Second),
			LLMModel:  util.GetEnvOr("LLM_MODEL", "gpt-4o-mini"),
			LLMApiKey: util.GetEnv("LLM_API_KEY"),
			LLMURL:    util.GetEnv("LLM_BASE_URL"),
		},
		Notify: NotifyConfig{
			Channels:      util.GetListEnvOr("NOTIFY_CHANNELS", []string{"msg91"}),
			MaxParallel:   int(util.GetIntEnv("NOTIFY_MAX_PARALLEL")),
			SendTimeout:   util.GetDurationEnvOr("NOTIFY_SEND_TIMEOUT", 20*time.Second),
			MSG91AuthKey:  util.GetEnv("MSG91_AUTH_KEY"),
			MSG91SenderID: util.GetEnvOr("MSG91_SENDER_ID", "EMERGE"),
			MSG91Route:    util.GetEnvOr("MSG91_ROUTE", "4"),
			MSG91BaseURL:  util.GetEnvOr("MSG91_BASE_URL", "https://api.msg91.com"),
			TwilioSID:     util.GetEnv("TWILIO_ACCOUNT_SID"),
			TwilioToken:   util.GetEnv("TWILIO_AUTH_TOKEN"),
			TwilioFrom:    util.GetEnv("TWILIO_PHONE_NUMBER"),
			WhatsAppFrom:  util.GetEnv("TWILIO_WHATSAPP_NUMBER"),
			TwilioBaseURL: util.GetEnvOr("TWILIO_BASE_URL", "https://api.twilio.com"),
		},
		Storage: StorageConfig{
			Driver:    util.GetEnvOr("STORAGE_DRIVER", "local"),
			LocalRoot: util.GetEnvOr("STORAGE_LOCAL_ROOT", "uploads/voice"),
			Bucket:    util.GetEnvOr("STORAGE_BUCKET", "lifeline-voice"),

			MinioEndpoint:  util.GetEnv("MINIO_ENDPOINT"),
			MinioAccessKey: util.GetEnv("MINIO_ACCESS_KEY"),
			MinioSecretKey: util.GetEnv("MINIO_SECRET_KEY"),
			MinioUseSSL:    util.GetBoolEnv("MINIO_USE_SSL"),
			PublicBaseURL:  util.GetEnv("STORAGE_PUBLIC_BASE"),
			COSBucketURL:   util.GetEnv("COS_BUCKET_URL"),
			COSSecretID:    util.GetEnv("COS_SECRET_ID"),
			COSSecretKey:   util.GetEnv("COS_SECRET_KEY"),
		},
		Cache: CacheConfig{
			Type:          util.GetEnvOr("CACHE_TYPE", "local"),
			RedisAddr:     util.GetEnvOr("REDIS_ADDR", "localhost:6379"),
			RedisPassword: util.GetEnv("REDIS_PASSWORD"),
			RedisDB:       int(util.GetIntEnv("REDIS_DB")),
			HospitalTTL:   util.GetDurationEnvOr("HOSPITAL_CACHE_TTL", 30*time.Second),
			MaxSize:       int(util.GetIntEnvOr("LOCAL_CACHE_MAX_SIZE", 1024)),
		},
		MQTT: MQTTConfig{
			Broker:   util.GetEnv("MQTT_BROKER"),
			ClientID: util.GetEnvOr("MQTT_CLIENT_ID", "lifeline"),
			Username: util.GetEnv("MQTT_USERNAME"),
			Password: util.GetEnv("MQTT_PASSWORD"),
			Topic:    util.GetEnvOr("MQTT_ALERT_TOPIC", "lifeline/alerts"),
		},
		BackupEnabled:      util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:         util.GetEnvOr("BACKUP_PATH", "backups"),
		BackupSchedule:     util.GetEnvOr("BACKUP_SCHEDULE", "0 3 * * *"),
		BackupKeep:         int(util.GetIntEnvOr("BACKUP_KEEP", 7)),
		AudioPurgeSchedule: util.GetEnvOr("AUDIO_PURGE_SCHEDULE", "@every 1h"),
	}
}
