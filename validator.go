package auth

import (
	"context"
)

// RemoteValidator asks the forum service whether a stored credential is still
// accepted. It is called at most once per application start and never retried:
// the answer either settles the session or is reported as inconclusive.
type RemoteValidator struct {
	service Service
	logger  Logger
}

var _ SessionValidator = (*RemoteValidator)(nil)

// NewRemoteValidator creates a SessionValidator backed by the remote service.
func NewRemoteValidator(service Service, logger Logger) *RemoteValidator {
	if logger == nil {
		logger = defLogger{}
	}
	return &RemoteValidator{service: service, logger: logger}
}

// Validate reports whether token is currently accepted. An explicit rejection
// returns (false, nil); a transport failure returns (false, err) so callers
// leave prior state untouched instead of logging the user out.
func (v *RemoteValidator) Validate(ctx context.Context, token string) (bool, error) {
	err := v.service.ValidateToken(ctx, token)
	if err == nil {
		return true, nil
	}

	if IsSessionExpired(err) {
		v.logger.Info("stored credential rejected by remote authority")
		return false, nil
	}

	// outcome unknown; log only, never treat as rejection
	v.logger.Warn("credential validation inconclusive", "error", err)
	return false, err
}
