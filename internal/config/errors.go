package config

import "github.com/ayoisaiah/steadfast/internal/apperr"

var (
	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errConfigValidation = &apperr.Error{
		Message: "config validation error",
	}

	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing default config failed",
	}

	errInvalidSince = &apperr.Error{
		Message: "invalid --since value",
	}

	errInvalidCooldown = &apperr.Error{
		Message: "pause cooldown must be between %v and %v, got %v",
	}

	errInvalidGoal = &apperr.Error{
		Message: "goal target cannot be negative, got %v",
	}

	errUnknownBackend = &apperr.Error{
		Message: "unknown store backend %q (must be bolt, sqlite, or memory)",
	}

	errInvalidLogLevel = &apperr.Error{
		Message: "invalid log level %q",
	}

	errEmptyUser = &apperr.Error{
		Message: "user id cannot be empty",
	}

	errInvalidLogLimit = &apperr.Error{
		Message: "log rotation limits must not be negative",
	}
)
