package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Capture source: device index ("0"), file path, or RTSP URL
	CaptureSource string
	CaptureFPS    int

	// NATS (events and window focus signal)
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int

	// Messaging subjects
	EventsSubject  string
	WindowSubject  string
	ChunksSubject  string
	EventsCooldown time.Duration

	// Entity classifier sidecar (Presidio-style analyzer)
	AnalyzerURL      string
	AnalyzerTimeout  time.Duration
	AnalyzerLanguage string

	// OCR
	OCRLanguage      string
	MinOCRConfidence float64

	// Detection cadence and scaling
	TextDetectEvery      int // run text detection every Nth frame
	FaceDetectEvery      int // run face detection every Nth frame
	DownscaleTargetWidth int // text detection raster width
	FaceDownscale        float64

	// Cache
	CacheTTL time.Duration

	// Region merging
	MergeIoUThreshold float64
	MergeMargin       int

	// Geometric matcher (real-world units converted via PxPerCM)
	LabelVocabulary []string
	ValueMinLen     int
	KeyCandidateLen int
	ScanWindow      int
	MaxHorizontalCM float64
	MaxVerticalCM   float64
	PxPerCM         float64
	LabelValuePadPX int

	// Entity region builder
	SensitiveEntities   []string
	MinEntityConfidence float64
	StopWords           []string
	EntityPadPX         int

	// Redactor
	BlurKernel           int
	BlurSigma            float64
	FullScreenBlurKernel int
	FullScreenBlurSigma  float64

	// Face detector
	FaceCascadeFile   string
	FaceScaleFactor   float64
	FaceMinNeighbors  int
	FaceMinSize       int
	FaceExclusionRect string // "x,y,w,h" webcam overlay region, empty to disable

	// Full-screen blur trigger
	SensitiveWindowKeywords []string

	// Shutdown
	ShutdownTimeout      time.Duration
	DetectorDrainTimeout time.Duration

	// Recording
	RecordingEnabled bool
	VideoOutputDir   string
	VideoChunkTime   int // seconds per chunk
	VideoMaxChunks   int
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "redact-worker-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Capture
		CaptureSource: getEnv("CAPTURE_SOURCE", "0"),
		CaptureFPS:    getEnvInt("CAPTURE_FPS", 30),

		// NATS
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1),

		EventsSubject:  getEnv("EVENTS_SUBJECT", "redactions"),
		WindowSubject:  getEnv("WINDOW_SUBJECT", "windows.active"),
		ChunksSubject:  getEnv("CHUNKS_SUBJECT", "recordings.chunks"),
		EventsCooldown: getEnvDuration("EVENTS_COOLDOWN", 2*time.Second),

		// Entity classifier
		AnalyzerURL:      getEnv("ANALYZER_URL", "http://localhost:5002"),
		AnalyzerTimeout:  getEnvDuration("ANALYZER_TIMEOUT", 3*time.Second),
		AnalyzerLanguage: getEnv("ANALYZER_LANGUAGE", "en"),

		// OCR
		OCRLanguage:      getEnv("OCR_LANGUAGE", "eng"),
		MinOCRConfidence: getEnvFloat("MIN_OCR_CONFIDENCE", 60),

		// Cadence and scaling
		TextDetectEvery:      getEnvInt("TEXT_DETECT_EVERY", 10),
		FaceDetectEvery:      getEnvInt("FACE_DETECT_EVERY", 5),
		DownscaleTargetWidth: getEnvInt("DOWNSCALE_TARGET_WIDTH", 960),
		FaceDownscale:        getEnvFloat("FACE_DOWNSCALE", 0.5),

		// Cache
		CacheTTL: getEnvDuration("CACHE_TTL", 1200*time.Millisecond),

		// Merging
		MergeIoUThreshold: getEnvFloat("MERGE_IOU_THRESHOLD", 0.2),
		MergeMargin:       getEnvInt("MERGE_MARGIN", 4),

		// Geometric matcher
		LabelVocabulary: getEnvList("LABEL_VOCABULARY",
			"api key,apikey,secret,password,passwd,token,auth,bearer,credentials"),
		ValueMinLen:     getEnvInt("VALUE_MIN_LEN", 6),
		KeyCandidateLen: getEnvInt("KEY_CANDIDATE_LEN", 16),
		ScanWindow:      getEnvInt("SCAN_WINDOW", 6),
		MaxHorizontalCM: getEnvFloat("MAX_HORIZONTAL_GAP_CM", 7),
		MaxVerticalCM:   getEnvFloat("MAX_VERTICAL_GAP_CM", 2),
		PxPerCM:         getEnvFloat("PX_PER_CM", 37.8),
		LabelValuePadPX: getEnvInt("LABEL_VALUE_PAD_PX", 20),

		// Entity region builder
		SensitiveEntities: getEnvList("SENSITIVE_ENTITIES",
			"EMAIL_ADDRESS,PHONE_NUMBER,CREDIT_CARD,IP_ADDRESS,US_SSN,IBAN_CODE,LOCATION,PERSON,US_PASSPORT"),
		MinEntityConfidence: getEnvFloat("MIN_ENTITY_CONFIDENCE", 0.5),
		StopWords: getEnvList("STOP_WORDS",
			"the,and,for,from,with,this,that,your,have,been,are,was,were,will,can,could,would,should,file,line,code,text,name"),
		EntityPadPX: getEnvInt("ENTITY_PAD_PX", 20),

		// Redactor
		BlurKernel:           getEnvInt("BLUR_KERNEL", 51),
		BlurSigma:            getEnvFloat("BLUR_SIGMA", 30),
		FullScreenBlurKernel: getEnvInt("FULLSCREEN_BLUR_KERNEL", 101),
		FullScreenBlurSigma:  getEnvFloat("FULLSCREEN_BLUR_SIGMA", 45),

		// Face detector
		FaceCascadeFile:   getEnv("FACE_CASCADE_FILE", "./data/haarcascade_frontalface_default.xml"),
		FaceScaleFactor:   getEnvFloat("FACE_SCALE_FACTOR", 1.1),
		FaceMinNeighbors:  getEnvInt("FACE_MIN_NEIGHBORS", 5),
		FaceMinSize:       getEnvInt("FACE_MIN_SIZE", 24),
		FaceExclusionRect: getEnv("FACE_EXCLUSION_RECT", ""),

		// Full-screen blur trigger
		SensitiveWindowKeywords: getEnvList("SENSITIVE_WINDOW_KEYWORDS",
			".env,secrets,config,apikey,.pem,.key"),

		// Shutdown
		ShutdownTimeout:      getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		DetectorDrainTimeout: getEnvDuration("DETECTOR_DRAIN_TIMEOUT", 5*time.Second),

		// Recording
		RecordingEnabled: getEnvBool("RECORDING_ENABLED", false),
		VideoOutputDir:   getEnv("VIDEO_OUTPUT_DIR", "./recordings"),
		VideoChunkTime:   getEnvInt("VIDEO_CHUNK_TIME", 60),
		VideoMaxChunks:   getEnvInt("VIDEO_MAX_CHUNKS", 30),
	}
}

// MaxHorizontalGapPX converts the configured horizontal gap to pixels.
func (c *Config) MaxHorizontalGapPX() int {
	return int(c.MaxHorizontalCM * c.PxPerCM)
}

// MaxVerticalGapPX converts the configured vertical gap to pixels.
func (c *Config) MaxVerticalGapPX() int {
	return int(c.MaxVerticalCM * c.PxPerCM)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
