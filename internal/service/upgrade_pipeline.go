package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/gateway"
	appErrors "github.com/wardenhq/warden/pkg/errors"
)

// UpgradeParams carries the verified inputs of a code upgrade.
type UpgradeParams struct {
	Target   string
	Module   []byte
	Arg      []byte
	Checksum string
}

// Upgrade is the single capability every guard stage shares. Stages wrap each
// other; composition order defines the pipeline, so stages can be reordered or
// omitted for other operation kinds.
type Upgrade interface {
	Apply(ctx context.Context, params UpgradeParams) error
}

// UpgradeFunc adapts a plain function to the Upgrade interface.
type UpgradeFunc func(ctx context.Context, params UpgradeParams) error

// Apply implements Upgrade.
func (f UpgradeFunc) Apply(ctx context.Context, params UpgradeParams) error {
	return f(ctx, params)
}

type callerContextKey struct{}

// WithEffectiveCaller stamps the identity performing low-level calls.
func WithEffectiveCaller(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, callerContextKey{}, identity)
}

// EffectiveCaller returns the stamped identity, empty when absent.
func EffectiveCaller(ctx context.Context) string {
	if v, ok := ctx.Value(callerContextKey{}).(string); ok {
		return v
	}
	return ""
}

// Installer is the innermost stage: the privileged code-replacement primitive.
type Installer struct {
	Units gateway.UnitManager
}

// Apply invokes the install primitive with the verified payload.
func (s *Installer) Apply(ctx context.Context, params UpgradeParams) error {
	if err := s.Units.InstallCode(ctx, params.Target, params.Module, params.Arg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteCallFailed.Code,
			appErrors.ErrRemoteCallFailed.Status, "install code failed")
	}
	return nil
}

// Hasher digests a module payload. The default is hex-encoded sha256.
type Hasher interface {
	Hash(module []byte) string
}

// HasherFunc adapts a plain function to the Hasher interface.
type HasherFunc func(module []byte) string

// Hash implements Hasher.
func (f HasherFunc) Hash(module []byte) string {
	return f(module)
}

// SHA256Hasher returns the default digest implementation.
func SHA256Hasher() Hasher {
	return HasherFunc(func(module []byte) string {
		digest := sha256.Sum256(module)
		return hex.EncodeToString(digest[:])
	})
}

// VerifyChecksum aborts before any side effect when the computed digest of the
// module payload does not equal the declared checksum.
type VerifyChecksum struct {
	Next   Upgrade
	Hasher Hasher
}

// Apply implements Upgrade.
func (s *VerifyChecksum) Apply(ctx context.Context, params UpgradeParams) error {
	hasher := s.Hasher
	if hasher == nil {
		hasher = SHA256Hasher()
	}
	if hasher.Hash(params.Module) != params.Checksum {
		return appErrors.ErrChecksumMismatch
	}
	return s.Next.Apply(ctx, params)
}

// CheckController verifies the engine is registered as an administrative
// controller of the target unit before proceeding.
type CheckController struct {
	Next           Upgrade
	Units          gateway.UnitManager
	EngineIdentity string
}

// Apply implements Upgrade.
func (s *CheckController) Apply(ctx context.Context, params UpgradeParams) error {
	controllers, err := s.Units.GetControllers(ctx, params.Target)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteCallFailed.Code,
			appErrors.ErrRemoteCallFailed.Status, "controller lookup failed")
	}
	for _, controller := range controllers {
		if controller == s.EngineIdentity {
			return s.Next.Apply(ctx, params)
		}
	}
	return appErrors.ErrNotController
}

// WithAuthorization re-validates that the effective caller of the low-level
// install action is the engine itself, not the request's caller identity.
type WithAuthorization struct {
	Next           Upgrade
	EngineIdentity string
}

// Apply implements Upgrade.
func (s *WithAuthorization) Apply(ctx context.Context, params UpgradeParams) error {
	if EffectiveCaller(ctx) != s.EngineIdentity {
		return appErrors.ErrUnauthorized
	}
	return s.Next.Apply(ctx, params)
}

// WithStop quiesces the target unit before code installation.
type WithStop struct {
	Next  Upgrade
	Units gateway.UnitManager
}

// Apply implements Upgrade.
func (s *WithStop) Apply(ctx context.Context, params UpgradeParams) error {
	if err := s.Units.Stop(ctx, params.Target); err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteCallFailed.Code,
			appErrors.ErrRemoteCallFailed.Status, "stop unit failed")
	}
	return s.Next.Apply(ctx, params)
}

// WithStart resumes the target unit regardless of the inner outcome: a failed
// install must not leave the target permanently stopped. A start failure after
// a successful install is logged as a secondary diagnostic and does not turn
// the outcome into a failure.
type WithStart struct {
	Next   Upgrade
	Units  gateway.UnitManager
	Logger *zap.Logger
}

// Apply implements Upgrade.
func (s *WithStart) Apply(ctx context.Context, params UpgradeParams) error {
	out := s.Next.Apply(ctx, params)

	if err := s.Units.Start(ctx, params.Target); err != nil {
		if out != nil {
			return out
		}
		if s.Logger != nil {
			s.Logger.Warn("unit restart failed after successful install",
				zap.String("target", params.Target), zap.Error(err))
		}
		return nil
	}
	return out
}

// WithLogs records the pipeline outcome with a stable action label.
type WithLogs struct {
	Next   Upgrade
	Logger *zap.Logger
	Action string
}

// Apply implements Upgrade.
func (s *WithLogs) Apply(ctx context.Context, params UpgradeParams) error {
	out := s.Next.Apply(ctx, params)

	status := "ok"
	if out != nil {
		status = out.Error()
	}
	if s.Logger != nil {
		s.Logger.Info("upgrade pipeline finished",
			zap.String("action", s.Action),
			zap.String("target", params.Target),
			zap.String("status", status))
	}
	return out
}

// BuildUpgradePipeline composes the fixed guard order used for the upgrade
// operation, innermost first: install, start-after, stop-before, caller
// authorization, controller check, checksum verification, logging.
func BuildUpgradePipeline(units gateway.UnitManager, engineIdentity, action string, logger *zap.Logger) Upgrade {
	var pipeline Upgrade = &Installer{Units: units}
	pipeline = &WithStart{Next: pipeline, Units: units, Logger: logger}
	pipeline = &WithStop{Next: pipeline, Units: units}
	pipeline = &WithAuthorization{Next: pipeline, EngineIdentity: engineIdentity}
	pipeline = &CheckController{Next: pipeline, Units: units, EngineIdentity: engineIdentity}
	pipeline = &VerifyChecksum{Next: pipeline}
	pipeline = &WithLogs{Next: pipeline, Logger: logger, Action: action}
	return pipeline
}
