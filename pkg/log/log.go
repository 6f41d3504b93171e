package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/Framerrr/Framerr-app-sub000/pkg/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
	config *config.LoggingConfig
}

// Fields represents a map of fields for structured logging
type Fields map[string]interface{}

// New creates a new logger instance
func New(cfg *config.LoggingConfig) (*Logger, error) {
	logger := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	// Set format
	switch cfg.Format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z",
		})
	}

	// Set output
	var output io.Writer
	switch cfg.Output {
	case "file":
		// Ensure log directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, err
		}

		output = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	default:
		output = os.Stdout
	}

	logger.SetOutput(output)

	return &Logger{
		Logger: logger,
		config: cfg,
	}, nil
}

// WithFields adds fields to log entry
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// WithField adds a single field to log entry
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError adds an error field to log entry
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// Request logging helpers
func (l *Logger) LogRequest(requestID, method, path, userAgent, clientIP string, statusCode int, duration int64) {
	l.WithFields(Fields{
		"request_id":  requestID,
		"method":      method,
		"path":        path,
		"user_agent":  userAgent,
		"client_ip":   clientIP,
		"status_code": statusCode,
		"duration_ms": duration,
		"type":        "request",
	}).Info("HTTP request")
}

func (l *Logger) LogAuth(userID uint, username, method, action string, success bool) {
	entry := l.WithFields(Fields{
		"user_id":  userID,
		"username": username,
		"method":   method,
		"action":   action,
		"success":  success,
		"type":     "auth",
	})

	if success {
		entry.Info("Authentication event")
	} else {
		entry.Warn("Authentication failed")
	}
}

// LogWebhook records an inbound webhook call. The token itself is
// never logged.
func (l *Logger) LogWebhook(integration, sourceIP, userAgent string, accepted bool, reason string) {
	entry := l.WithFields(Fields{
		"integration": integration,
		"source_ip":   sourceIP,
		"user_agent":  userAgent,
		"accepted":    accepted,
		"type":        "webhook",
	})

	if reason != "" {
		entry = entry.WithField("reason", reason)
	}

	if accepted {
		entry.Info("Webhook received")
	} else {
		entry.Warn("Webhook rejected")
	}
}

// LogRouting records the routing outcome of one inbound event.
func (l *Logger) LogRouting(integration, eventType string, adminCount, fallbackCount int, personal, resolved bool) {
	l.WithFields(Fields{
		"integration":    integration,
		"event_type":     eventType,
		"admin_count":    adminCount,
		"fallback_count": fallbackCount,
		"personal":       personal,
		"resolved":       resolved,
		"type":           "routing",
	}).Info("Event routed")
}

// LogDispatch records delivery of a queued notification.
func (l *Logger) LogDispatch(notificationID, recipientID uint, kind string, success bool, errMsg string) {
	entry := l.WithFields(Fields{
		"notification_id": notificationID,
		"recipient_id":    recipientID,
		"kind":            kind,
		"success":         success,
		"type":            "dispatch",
	})

	if errMsg != "" {
		entry = entry.WithField("error", errMsg)
	}

	if success {
		entry.Info("Notification dispatched")
	} else {
		entry.Error("Notification dispatch failed")
	}
}

func (l *Logger) LogSecurity(event string, userID uint, ip string, details map[string]interface{}) {
	fields := Fields{
		"event":   event,
		"user_id": userID,
		"ip":      ip,
		"type":    "security",
	}

	for k, v := range details {
		fields[k] = v
	}

	l.WithFields(fields).Warn("Security event")
}

func (l *Logger) LogSystem(component string, action string, success bool, details map[string]interface{}) {
	fields := Fields{
		"component": component,
		"action":    action,
		"success":   success,
		"type":      "system",
	}

	for k, v := range details {
		fields[k] = v
	}

	entry := l.WithFields(fields)
	if success {
		entry.Info("System event")
	} else {
		entry.Error("System event failed")
	}
}

// Global logger instance
var defaultLogger *Logger

// Init initializes the default logger
func Init(cfg *config.LoggingConfig) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	return defaultLogger
}

// Convenience functions for global logger
func Debug(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Debug(args...)
	}
}

func Info(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Info(args...)
	}
}

func Warn(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Warn(args...)
	}
}

func Error(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Error(args...)
	}
}

func Fatal(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Fatal(args...)
	}
}

func WithFields(fields Fields) *logrus.Entry {
	if defaultLogger != nil {
		return defaultLogger.WithFields(fields)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithError(err error) *logrus.Entry {
	if defaultLogger != nil {
		return defaultLogger.WithError(err)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
