package database

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultDescriptor is used when no connection descriptor is supplied.
	DefaultDescriptor = "sqlite:./campaign.db"

	// fallbackCloudDescriptor is tried when the embedded engine fails to
	// initialise in production, to avoid a total outage.
	fallbackCloudDescriptor = "postgresql://localhost:5432/campaign"
)

var credentialPattern = regexp.MustCompile(`:[^:@/]+@`)

// Redact masks the password portion of a connection descriptor for logging.
func Redact(descriptor string) string {
	return credentialPattern.ReplaceAllString(descriptor, ":***@")
}

// Options controls backend selection.
type Options struct {
	Descriptor string
	Production bool
	Logger     *logrus.Logger
}

// Select interprets the connection descriptor and initialises exactly one
// backend. Decision order: cloud URI scheme, then embedded file engine, then
// (in production) a cloud retry against a default local descriptor, then the
// degraded mock floor. Only the final fallback swallows the error.
func Select(opts Options) Backend {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithField("component", "backend-selector")

	descriptor := opts.Descriptor
	if descriptor == "" {
		descriptor = DefaultDescriptor
	}
	log.WithFields(logrus.Fields{
		"descriptor": Redact(descriptor),
		"production": opts.Production,
	}).Info("selecting database backend")

	if isCloudDescriptor(descriptor) {
		backend, err := openCloud(descriptor, opts.Production)
		if err == nil {
			log.Info("cloud backend initialised")
			return backend
		}
		log.WithError(err).WithField("descriptor", Redact(descriptor)).Error("cloud backend initialisation failed")
		return newMockBackend(log)
	}

	path := strings.TrimPrefix(descriptor, "sqlite:")
	backend, err := openEmbedded(path)
	if err == nil {
		log.WithField("path", path).Info("embedded backend initialised")
		return backend
	}
	log.WithError(err).WithField("path", path).Error("embedded backend initialisation failed")

	if opts.Production {
		log.Warn("production environment without embedded engine; retrying with cloud backend")
		retry := opts.Descriptor
		if !isCloudDescriptor(retry) {
			retry = fallbackCloudDescriptor
		}
		backend, err := openCloud(retry, true)
		if err == nil {
			log.Info("cloud backend initialised on retry")
			return backend
		}
		log.WithError(err).WithField("descriptor", Redact(retry)).Error("cloud retry failed")
	}

	return newMockBackend(log)
}

func isCloudDescriptor(descriptor string) bool {
	return strings.HasPrefix(descriptor, "postgresql://") || strings.HasPrefix(descriptor, "postgres://")
}
