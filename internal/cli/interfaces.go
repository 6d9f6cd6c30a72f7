package cli

import (
	"github.com/cosmospool/cosmospool/internal/chain/eth/rpc"
	"github.com/cosmospool/cosmospool/internal/config"
	"github.com/cosmospool/cosmospool/internal/metrics"
	"github.com/cosmospool/cosmospool/internal/notify"
	"github.com/cosmospool/cosmospool/internal/provider"
	"github.com/cosmospool/cosmospool/internal/service/deposit"
	"github.com/cosmospool/cosmospool/internal/session"
)

// NewCommandContext hands one logger and one metrics value to every component.
var (
	_ provider.LogWriter = (*config.Logger)(nil)
	_ session.LogWriter  = (*config.Logger)(nil)
	_ notify.LogWriter   = (*config.Logger)(nil)
	_ deposit.LogWriter  = (*config.Logger)(nil)

	_ rpc.Recorder          = (*metrics.Metrics)(nil)
	_ session.EventRecorder = (*metrics.Metrics)(nil)
	_ notify.Recorder       = (*metrics.Metrics)(nil)
	_ deposit.Recorder      = (*metrics.Metrics)(nil)

	_ deposit.Guard = (*deposit.FileGuard)(nil)
)
