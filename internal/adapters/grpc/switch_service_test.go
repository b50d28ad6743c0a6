package grpc_test

import (
	"context"
	"math"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	switchgrpc "github.com/mikeday37/maneuver-autothrottle/internal/adapters/grpc"
	"github.com/mikeday37/maneuver-autothrottle/internal/application/autothrottle"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/burn"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
)

const bufSize = 1 << 20

// startSwitchServer serves the switch over an in-memory listener and
// returns a connected client.
func startSwitchServer(t *testing.T, sw *autothrottle.MasterSwitch, snapshot func() autothrottle.Snapshot) *switchgrpc.SwitchClient {
	t.Helper()

	lis := bufconn.Listen(bufSize)
	server := switchgrpc.NewSwitchServerWithListener(lis, switchgrpc.NewSwitchService(sw, snapshot, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		assert.NoError(t, <-done)
	})
	return switchgrpc.NewSwitchClientConn(conn)
}

func TestSwitchService_ToggleAndDisable(t *testing.T) {
	// Arrange
	sw := autothrottle.NewMasterSwitch()
	client := startSwitchServer(t, sw, func() autothrottle.Snapshot { return autothrottle.Snapshot{Phase: maneuver.PhaseIdle} })
	ctx := context.Background()

	// Act
	enabled, err := client.Toggle(ctx)
	require.NoError(t, err)

	// Assert
	assert.True(t, enabled)
	assert.True(t, sw.IsEnabled())

	was, err := client.Disable(ctx)
	require.NoError(t, err)
	assert.True(t, was)
	assert.False(t, sw.IsEnabled())

	was, err = client.Disable(ctx)
	require.NoError(t, err)
	assert.False(t, was, "already off")
}

func TestSwitchService_ToggleRepeat(t *testing.T) {
	sw := autothrottle.NewMasterSwitch()
	client := startSwitchServer(t, sw, func() autothrottle.Snapshot { return autothrottle.Snapshot{Phase: maneuver.PhaseIdle} })

	repeat, err := client.ToggleRepeat(context.Background())

	require.NoError(t, err)
	assert.True(t, repeat)
	assert.True(t, sw.IsRepeatEnabled())
	assert.False(t, sw.IsEnabled())
}

func TestSwitchService_Status(t *testing.T) {
	// Arrange
	sw := autothrottle.NewMasterSwitch()
	snap := autothrottle.Snapshot{
		SessionID:     "burn-7-0badf00d",
		UT:            1119.5,
		Vessel:        7,
		Phase:         maneuver.PhaseThrottleDown,
		Pending:       maneuver.PhaseThrottleZero,
		HasPending:    true,
		PhaseAge:      0.25,
		PhysicsTicks:  12,
		LateTicks:     15,
		Autopilot:     true,
		Enabled:       true,
		Estimate:      burn.Estimate{Acceleration: 4, BurnTimeRemaining: 0.6},
		EstimateValid: true,
	}
	client := startSwitchServer(t, sw, func() autothrottle.Snapshot { return snap })

	// Act
	status, err := client.Status(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "burn-7-0badf00d", status.SessionID)
	assert.Equal(t, maneuver.VesselID(7), status.Vessel)
	assert.Equal(t, maneuver.PhaseThrottleDown, status.Phase)
	assert.Equal(t, maneuver.PhaseThrottleZero, status.Pending)
	assert.Equal(t, uint64(15), status.LateTicks)
	assert.True(t, status.Autopilot)
	assert.True(t, status.Enabled)
	require.NotNil(t, status.BurnTimeRemaining)
	assert.InDelta(t, 0.6, *status.BurnTimeRemaining, 1e-12)
	require.NotNil(t, status.Acceleration)
	assert.InDelta(t, 4.0, *status.Acceleration, 1e-12)
}

func TestSnapshotToStruct_OmitsStalledEstimate(t *testing.T) {
	st, err := switchgrpc.SnapshotToStruct(autothrottle.Snapshot{
		Phase:         maneuver.PhaseStaging,
		Estimate:      burn.Estimate{BurnTimeRemaining: math.Inf(1)},
		EstimateValid: true,
	})
	require.NoError(t, err)

	status, err := switchgrpc.StatusFromStruct(st)

	require.NoError(t, err)
	assert.Nil(t, status.BurnTimeRemaining)
	assert.NotNil(t, status.Acceleration)
	assert.Empty(t, status.Pending)
}
