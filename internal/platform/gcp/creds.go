package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"

	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

// credentialOptions picks service-account credentials for the storage client.
// GOOGLE_APPLICATION_CREDENTIALS_JSON holds the key inline and
// GOOGLE_APPLICATION_CREDENTIALS is a key file path. With neither set the client falls back to ambient ADC.
func credentialOptions(log *logger.Logger) []option.ClientOption {
	for _, name := range []string{"GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS"} {
		raw := strings.TrimSpace(os.Getenv(name))
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "{") {
			log.Debug("Using inline storage credentials", "source", name)
			return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
		}
		log.Debug("Using storage credentials file", "source", name, "path", raw)
		return []option.ClientOption{option.WithCredentialsFile(raw)}
	}
	log.Debug("No storage credentials configured, using application default credentials")
	return nil
}
