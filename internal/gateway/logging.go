package gateway

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LoggingTransferGateway is a development stand-in that records transfer
// submissions instead of reaching a ledger.
type LoggingTransferGateway struct {
	logger *zap.Logger
}

// NewLoggingTransferGateway constructs the stand-in gateway.
func NewLoggingTransferGateway(logger *zap.Logger) *LoggingTransferGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingTransferGateway{logger: logger}
}

// SubmitTransfer logs the transfer and returns a synthetic transaction ref.
func (g *LoggingTransferGateway) SubmitTransfer(ctx context.Context, accountID, to, amount, fee string, metadata map[string]string) (string, error) {
	txRef := fmt.Sprintf("tx-%d", time.Now().UnixNano())
	g.logger.Info("transfer submitted",
		zap.String("account_id", accountID),
		zap.String("to", to),
		zap.String("amount", amount),
		zap.String("tx_ref", txRef),
	)
	return txRef, nil
}

// LoggingUnitManager is a development stand-in for the unit management API.
// It reports the engine itself as the sole controller of every target.
type LoggingUnitManager struct {
	logger   *zap.Logger
	identity string
}

// NewLoggingUnitManager constructs the stand-in manager.
func NewLoggingUnitManager(logger *zap.Logger, engineIdentity string) *LoggingUnitManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingUnitManager{logger: logger, identity: engineIdentity}
}

func (m *LoggingUnitManager) InstallCode(ctx context.Context, target string, module, arg []byte) error {
	m.logger.Info("install code", zap.String("target", target), zap.Int("module_bytes", len(module)))
	return nil
}

func (m *LoggingUnitManager) Stop(ctx context.Context, target string) error {
	m.logger.Info("stop unit", zap.String("target", target))
	return nil
}

func (m *LoggingUnitManager) Start(ctx context.Context, target string) error {
	m.logger.Info("start unit", zap.String("target", target))
	return nil
}

func (m *LoggingUnitManager) GetControllers(ctx context.Context, target string) ([]string, error) {
	return []string{m.identity}, nil
}
