package settings

import (
	"net"
	"runtime"
	"time"
)

// DefaultSyslogAddress is the local syslog socket Weblate logs to.
const DefaultSyslogAddress = "/dev/log"

// SyslogAvailable reports whether a syslog daemon listens on the unix socket
// at address. Datagram sockets are tried first, then stream sockets.
func SyslogAvailable(address string) bool {
	if runtime.GOOS == "windows" {
		return false
	}
	for _, network := range []string{"unixgram", "unix"} {
		conn, err := net.DialTimeout(network, address, time.Second)
		if err == nil {
			_ = conn.Close()
			return true
		}
	}
	return false
}

func resolveLogging(debug, haveSyslog bool, level string) Logging {
	defaultHandler := "syslog"
	if debug || !haveSyslog {
		defaultHandler = "console"
	}

	propagate := true
	noPropagate := false

	handlers := map[string]LogHandler{
		"mail_admins": {
			Level:       "ERROR",
			Class:       "django.utils.log.AdminEmailHandler",
			Filters:     []string{"require_debug_false"},
			IncludeHTML: true,
		},
		"console": {
			Level:     "DEBUG",
			Class:     "logging.StreamHandler",
			Formatter: "simple",
		},
		"django.server": {
			Level:     "INFO",
			Class:     "logging.StreamHandler",
			Formatter: "django.server",
		},
	}
	if haveSyslog {
		handlers["syslog"] = LogHandler{
			Level:     "DEBUG",
			Class:     "logging.handlers.SysLogHandler",
			Formatter: "syslog",
			Address:   DefaultSyslogAddress,
			Facility:  syslogFacilityLocal2,
		}
	}

	return Logging{
		HaveSyslog:             haveSyslog,
		DefaultHandler:         defaultHandler,
		Version:                1,
		DisableExistingLoggers: true,
		Filters: map[string]LogFilter{
			"require_debug_false": {Factory: "django.utils.log.RequireDebugFalse"},
		},
		Formatters: map[string]LogFormatter{
			"syslog":        {Format: "weblate[%(process)d]: %(levelname)s %(message)s"},
			"simple":        {Format: "%(levelname)s %(message)s"},
			"logfile":       {Format: "%(asctime)s %(levelname)s %(message)s"},
			"django.server": {Factory: "django.utils.log.ServerFormatter", Format: "[%(server_time)s] %(message)s"},
		},
		Handlers: handlers,
		Loggers: map[string]Logger{
			"django.request": {
				Handlers:  []string{"mail_admins", defaultHandler},
				Level:     "ERROR",
				Propagate: &propagate,
			},
			"django.server": {
				Handlers:  []string{"django.server"},
				Level:     "INFO",
				Propagate: &noPropagate,
			},
			"weblate": {
				Handlers: []string{defaultHandler},
				Level:    level,
			},
		},
	}
}
