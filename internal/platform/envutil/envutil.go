package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

func String(name, def string, log *logger.Logger) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		if log != nil {
			log.Debug("Environment variable not set, using default", "name", name, "default", def)
		}
		return def
	}
	return v
}

func Int(name string, def int, log *logger.Logger) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("Invalid integer environment variable, using default", "name", name, "value", v, "default", def)
		}
		return def
	}
	return i
}

func Bool(name string, def bool, log *logger.Logger) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	if log != nil {
		log.Warn("Invalid boolean environment variable, using default", "name", name, "value", v, "default", def)
	}
	return def
}

// Seconds reads an integer number of seconds. Non-positive values fall back to def.
func Seconds(name string, def time.Duration, log *logger.Logger) time.Duration {
	n := Int(name, int(def/time.Second), log)
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func List(name string, def []string, log *logger.Logger) []string {
	raw := String(name, "", log)
	if raw == "" {
		return def
	}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// Float reads a float clamped to [min, max]. Unparseable values fall back to def.
func Float(name string, def, min, max float64, log *logger.Logger) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if log != nil {
			log.Warn("Invalid float environment variable, using default", "name", name, "value", v, "default", def)
		}
		return def
	}
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}

// Pairs reads "k1=v1,k2=v2". Pairs with an empty key or value are skipped and
// nil is returned when nothing is left.
func Pairs(name string, log *logger.Logger) map[string]string {
	var out map[string]string
	for _, part := range List(name, nil, log) {
		k, v, ok := strings.Cut(part, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}
	return out
}
