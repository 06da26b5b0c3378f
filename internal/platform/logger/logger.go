package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a zap logger. mode "prod"/"production" emits JSON; anything
// else is the console encoder. LOG_LEVEL sets the minimum level (debug by
// default).
func New(mode string) (*Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if m := strings.ToLower(mode); m == "prod" || m == "production" {
		cfg = zap.NewProductionConfig()
	}
	level := zapcore.DebugLevel
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(sanitizeKVs(keysAndValues)...)}
}

// policy is what happens to a logged value, decided by its key.
type policy int

const (
	keep policy = iota
	redact
	hash
)

// Credentials and patient free text are dropped; identifiers that let a
// support engineer correlate lines are hashed.
var (
	exactKeys = map[string]policy{
		"nom": redact, "prenom": redact, "last_name": redact, "first_name": redact,
		"patient_name": redact, "practitioner_name": redact, "notes": redact,
		"screenshot": redact, "data": redact, "data_url": redact,

		"patient_id": hash, "idpatient": hash, "practitioner_id": hash,
		"idpraticien": hash, "document_id": hash, "doc_id": hash,
		"center_id": hash, "centre_id": hash, "idcentre": hash, "id_centre": hash,
	}
	redactFragments = []string{"token", "authorization", "password", "secret", "cookie", "api_key", "apikey", "email", "dsn"}
	redactSuffixes  = []string{"_nom", "_prenom", "_data"}
	hashFragments   = []string{"patient_id", "draft_id"}
)

func policyFor(key string) policy {
	if p, ok := exactKeys[key]; ok {
		return p
	}
	for _, f := range redactFragments {
		if strings.Contains(key, f) {
			return redact
		}
	}
	for _, s := range redactSuffixes {
		if strings.HasSuffix(key, s) {
			return redact
		}
	}
	for _, f := range hashFragments {
		if strings.Contains(key, f) {
			return hash
		}
	}
	return keep
}

var (
	redactOnce       sync.Once
	redactionEnabled bool
	hashSalt         string
)

func redactionOn() bool {
	redactOnce.Do(func() {
		switch strings.TrimSpace(strings.ToLower(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
			redactionEnabled = false
		default:
			redactionEnabled = true
		}
		hashSalt = strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))
	})
	return redactionEnabled
}

func sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 || !redactionOn() {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := toString(kv[i])
		out = append(out, key, sanitizeValue(strings.ToLower(strings.TrimSpace(key)), kv[i+1]))
	}
	return out
}

func sanitizeValue(key string, val interface{}) interface{} {
	if key != "" {
		switch policyFor(key) {
		case redact:
			return "[REDACTED]"
		case hash:
			return hashValue(val)
		}
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = sanitizeValue(strings.ToLower(strings.TrimSpace(k)), inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = sanitizeValue("", inner)
		}
		return out
	case string:
		if strings.HasPrefix(v, "data:") && strings.Contains(v, ";base64,") {
			return fmt.Sprintf("[DATA %d chars]", len(v))
		}
	}
	return val
}

// hashValue returns "hash:" and the first 12 hex chars of the salted sha256.
func hashValue(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(hashSalt))
	h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
